package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"tango-chat-app/cache"
	"tango-chat-app/config/common"
	"tango-chat-app/config/logger"
	"tango-chat-app/dispatch"
	"tango-chat-app/handler"
	"tango-chat-app/middleware"
	"tango-chat-app/notification"
	"tango-chat-app/repository"
	"tango-chat-app/routes"
	"tango-chat-app/security"
	"tango-chat-app/usecase"
)

type AppConfig struct {
	*fiber.App
	*validator.Validate
	*logrus.Logger
	*DBConfig
	*security.JWT
	*middleware.Middleware
	AppLog   *logger.AppLogger
	Guard    *cache.Guard
	Notifier notification.Notifier
	PageSize int
}

func RunServer() {
	newConfig := common.NewViper()
	app := NewFiber(newConfig)
	log := NewLogger()
	appLog := logger.NewLogger(newConfig.GetLogDir())
	newDB := NewDB(newConfig, appLog)
	newValidator := NewValidator()
	newJWT := security.NewJWT(newConfig)
	newMiddleware := middleware.NewMiddleware(newConfig, newJWT, log)
	newRedis := NewRedis(newConfig, log)
	newNotifier := NewNotifier(newConfig, log)
	_, _, _, pageSize := newConfig.GetChatConfig()

	// middleware CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins: newConfig.GetCorsOrigins(),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(RequestLogger(appLog))

	App(&AppConfig{
		App:        app,
		Validate:   newValidator,
		Logger:     log,
		DBConfig:   newDB,
		JWT:        newJWT,
		Middleware: newMiddleware,
		AppLog:     appLog,
		Guard:      NewGuard(newConfig, newRedis),
		Notifier:   newNotifier,
		PageSize:   pageSize,
	})

	defer closeAll(log, newRedis, newNotifier)
	if err := app.Listen(":" + newConfig.GetAppPort()); err != nil {
		log.WithError(err).Errorf("Failed to start server: %v", err)
	}
}

func App(aC *AppConfig) {
	newUserRepository := repository.NewUserRepository(aC.GetDB())

	core := usecase.NewCore(aC.GetDB(), newUserRepository, aC.Validate, aC.Logger)
	if aC.PageSize > 0 {
		core.PageSize = aC.PageSize
	}
	newRoomUsecase := usecase.NewRoomUsecase(core)
	newMembershipUsecase := usecase.NewMembershipUsecase(core)
	newMessageUsecase := usecase.NewMessageUsecase(core, newRoomUsecase)
	newThreadUsecase := usecase.NewThreadUsecase(core)

	registry := dispatch.NewRegistry()
	dispatcher := dispatch.NewDispatcher(registry, aC.Notifier, aC.AppLog)

	newChatHandler := handler.NewChatHandler(newThreadUsecase, newMessageUsecase, newMembershipUsecase, aC.Logger)
	wsHandler := handler.NewWebSocketHandler(
		newRoomUsecase,
		newMembershipUsecase,
		newMessageUsecase,
		newThreadUsecase,
		registry,
		dispatcher,
		aC.Guard,
		aC.Logger,
		aC.AppLog,
	)

	route := routes.ConfigRoute{
		App:         aC.App,
		Middleware:  aC.Middleware,
		ChatHandler: newChatHandler,
	}
	route.GetRoute()
	route.GetWebSocketRoute(wsHandler)
}

func closeAll(log *logrus.Logger, client *redis.Client, notifier notification.Notifier) {
	if client != nil {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close redis client")
		}
	}
	if err := notifier.Close(); err != nil {
		log.WithError(err).Warn("Failed to close notifier")
	}
}
