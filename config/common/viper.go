package common

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/viper"
)

type Config struct {
	Viper *viper.Viper
}

func NewViper() *Config {
	config := viper.New()
	config.SetConfigFile(".env")
	config.AddConfigPath("../")
	config.AutomaticEnv()
	SetDefaults(config)

	log.Trace("Checking file .env ....")
	if err := config.ReadInConfig(); err != nil {
		// Deployments pass everything through the environment.
		log.Warnf("No .env file loaded, using environment only: %v", err)
	}
	return &Config{Viper: config}
}

func SetDefaults(config *viper.Viper) {
	config.SetDefault("APP_NAME", "tango-chat-app")
	config.SetDefault("APP_PORT", "7720")
	config.SetDefault("DB_HOSTNAME", "localhost")
	config.SetDefault("DB_PORT", "5432")
	config.SetDefault("REDIS_DB", 0)
	config.SetDefault("KAFKA_NOTIFICATION_TOPIC", "chat.notifications")
	config.SetDefault("CHAT_RATE_LIMIT", 30)
	config.SetDefault("CHAT_RATE_WINDOW", "10s")
	config.SetDefault("CHAT_IDEMPOTENCY_TTL", "10m")
	config.SetDefault("CHAT_PAGE_SIZE", 50)
	config.SetDefault("CORS_ORIGINS", "http://localhost:8080")
	config.SetDefault("LOG_DIR", "logs")
}

func (c *Config) GetAppConfig() (appName string) {
	return c.Viper.GetString("APP_NAME")
}

func (c *Config) GetAppPort() string {
	return c.Viper.GetString("APP_PORT")
}

func (c *Config) GetDatabaseConfig() (dbHost, dbUser, dbPassword, dbName, dbPort string) {
	dbHost = c.Viper.GetString("DB_HOSTNAME")
	dbUser = c.Viper.GetString("DB_USER")
	dbPassword = c.Viper.GetString("DB_PASSWORD")
	dbName = c.Viper.GetString("DB_NAME")
	dbPort = c.Viper.GetString("DB_PORT")

	return dbHost, dbUser, dbPassword, dbName, dbPort
}

func (c *Config) GetJwtConfig() []byte {
	jwtSecret := c.Viper.GetString("JWT_SECRET")
	return []byte(jwtSecret)
}

// GetRedisConfig returns an empty addr when redis is not configured.
func (c *Config) GetRedisConfig() (addr, password string, db int) {
	return c.Viper.GetString("REDIS_ADDR"), c.Viper.GetString("REDIS_PASSWORD"), c.Viper.GetInt("REDIS_DB")
}

// GetKafkaConfig returns no brokers when push notifications are disabled.
func (c *Config) GetKafkaConfig() (brokers []string, topic string) {
	for _, broker := range strings.Split(c.Viper.GetString("KAFKA_BROKERS"), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers, c.Viper.GetString("KAFKA_NOTIFICATION_TOPIC")
}

func (c *Config) GetChatConfig() (rateLimit int64, rateWindow, idempotencyTTL time.Duration, pageSize int) {
	return c.Viper.GetInt64("CHAT_RATE_LIMIT"),
		c.Viper.GetDuration("CHAT_RATE_WINDOW"),
		c.Viper.GetDuration("CHAT_IDEMPOTENCY_TTL"),
		c.Viper.GetInt("CHAT_PAGE_SIZE")
}

func (c *Config) GetCorsOrigins() string {
	return c.Viper.GetString("CORS_ORIGINS")
}

func (c *Config) GetLogDir() string {
	return c.Viper.GetString("LOG_DIR")
}
