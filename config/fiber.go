package config

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
	"tango-chat-app/apperror"
	"tango-chat-app/config/common"
	"tango-chat-app/config/logger"
	"tango-chat-app/dto/res"
)

func NewFiber(cfg *common.Config) *fiber.App {
	appName := cfg.GetAppConfig()
	return fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		AppName:       appName,
		ErrorHandler:  ErrorHandler,
	})
}

// ErrorHandler renders usecase errors with the status their kind maps to.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(res.ErrorResponse{
			Status:     fiberErr.Message,
			StatusCode: fiberErr.Code,
			Error:      fiberErr.Message,
		})
	}

	kind := apperror.KindOf(err)
	code := StatusOf(kind)
	return c.Status(code).JSON(res.ErrorResponse{
		Status:     utils.StatusMessage(code),
		StatusCode: code,
		Kind:       string(kind),
		Error:      apperror.PublicMessage(err),
	})
}

func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindPermissionDenied:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// RequestLogger writes the REST access log: a trace line when a request
// arrives and one line on the Http stream when it completes. Client errors
// also go to the warning log and server errors to the error log.
func RequestLogger(log *logger.AppLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()
		log.Http.Trace.Trace().Str("method", method).Str("path", path).Msg("request")

		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOfError(err)
		}

		entry := func(event *zerolog.Event) *zerolog.Event {
			return event.
				Str("method", method).
				Str("path", path).
				Int("status", status).
				Dur("latency", time.Since(start))
		}
		entry(log.Http.Stream.Info()).Msg("completed")
		switch {
		case status >= fiber.StatusInternalServerError:
			entry(log.Http.Error.Error()).Err(err).Msg("request failed")
		case status >= fiber.StatusBadRequest:
			entry(log.Http.Warning.Warn()).Err(err).Msg("request rejected")
		}
		return err
	}
}

// statusOfError is the status ErrorHandler answers err with.
func statusOfError(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return StatusOf(apperror.KindOf(err))
}
