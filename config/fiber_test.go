package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tango-chat-app/apperror"
	"tango-chat-app/config/logger"
	"tango-chat-app/dto/res"
)

func TestErrorHandler_MapsKinds(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperror.Validation("name is required"), fiber.StatusBadRequest, "name is required"},
		{apperror.PermissionDenied("admins only"), fiber.StatusForbidden, "admins only"},
		{apperror.NotFound("room x not found"), fiber.StatusNotFound, "room x not found"},
		{apperror.Internal(errors.New("pq: connection refused"), "failed"), fiber.StatusInternalServerError, "internal server error"},
		{errors.New("boom"), fiber.StatusInternalServerError, "internal server error"},
		{fiber.ErrUpgradeRequired, fiber.StatusUpgradeRequired, fiber.ErrUpgradeRequired.Message},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			response, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, response.StatusCode)

			var body res.ErrorResponse
			require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestRequestLogger_RoutesByStatus(t *testing.T) {
	var stream, trace, warning, failure bytes.Buffer
	nop := zerolog.Nop()
	appLog := &logger.AppLogger{
		Http: logger.CommonLogger{
			Info:    nop,
			Stream:  zerolog.New(&stream),
			Trace:   zerolog.New(&trace).Level(zerolog.TraceLevel),
			Warning: zerolog.New(&warning),
			Error:   zerolog.New(&failure),
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(RequestLogger(appLog))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/denied", func(c *fiber.Ctx) error { return apperror.PermissionDenied("admins only") })
	app.Get("/broken", func(c *fiber.Ctx) error { return errors.New("boom") })

	for _, path := range []string{"/ok", "/denied", "/broken"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, strings.Count(stream.String(), `"message":"completed"`))
	assert.Contains(t, stream.String(), `"status":403`)
	assert.Equal(t, 3, strings.Count(trace.String(), `"message":"request"`))
	assert.Contains(t, warning.String(), `"path":"/denied"`)
	assert.NotContains(t, warning.String(), `"path":"/ok"`)
	assert.Contains(t, failure.String(), `"path":"/broken"`)
	assert.Contains(t, failure.String(), `"status":500`)
}
