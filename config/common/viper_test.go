package common

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	return &Config{Viper: v}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := newTestConfig()

	rateLimit, rateWindow, idempotencyTTL, pageSize := cfg.GetChatConfig()
	assert.Equal(t, int64(30), rateLimit)
	assert.Equal(t, 10*time.Second, rateWindow)
	assert.Equal(t, 10*time.Minute, idempotencyTTL)
	assert.Equal(t, 50, pageSize)
	assert.Equal(t, "7720", cfg.GetAppPort())

	addr, _, _ := cfg.GetRedisConfig()
	assert.Empty(t, addr)
}

func TestConfig_KafkaBrokers(t *testing.T) {
	cfg := newTestConfig()
	cfg.Viper.Set("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")

	brokers, topic := cfg.GetKafkaConfig()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, brokers)
	assert.Equal(t, "chat.notifications", topic)

	cfg.Viper.Set("KAFKA_BROKERS", "")
	brokers, _ = cfg.GetKafkaConfig()
	assert.Empty(t, brokers)
}
