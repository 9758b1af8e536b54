package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tango-chat-app/config/common"
	"tango-chat-app/security"
)

func newTestMiddleware() *Middleware {
	v := viper.New()
	v.Set("JWT_SECRET", "secret")
	cfg := &common.Config{Viper: v}

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewMiddleware(cfg, security.NewJWT(cfg), log)
}

func newProtectedApp(m *Middleware) *fiber.App {
	app := fiber.New()
	app.Get("/me", m.JWTProtected, m.ExtractUserID, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	app.Get("/ws", m.WebSocketUpgrade, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestJWTProtected_ExposesUserID(t *testing.T) {
	m := newTestMiddleware()
	token, err := m.JWT.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	request := httptest.NewRequest("GET", "/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	response, err := newProtectedApp(m).Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, "alice", string(body))
}

func TestJWTProtected_RejectsMissingToken(t *testing.T) {
	response, err := newProtectedApp(newTestMiddleware()).Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestWebSocketUpgrade(t *testing.T) {
	m := newTestMiddleware()
	app := newProtectedApp(m)

	response, err := app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, response.StatusCode)

	request := httptest.NewRequest("GET", "/ws?token=garbage", nil)
	request.Header.Set("Connection", "Upgrade")
	request.Header.Set("Upgrade", "websocket")
	response, err = app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, response.StatusCode)

	token, err := m.JWT.GenerateToken("alice", time.Hour)
	require.NoError(t, err)
	request = httptest.NewRequest("GET", "/ws?token="+token, nil)
	request.Header.Set("Connection", "Upgrade")
	request.Header.Set("Upgrade", "websocket")
	response, err = app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)
}
