package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKeysMutationsByPrincipal(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		switch c.Get("X-User") {
		case "1":
			c.Locals(LocalUserID, uint(1))
		case "2":
			c.Locals(LocalUserID, uint(2))
		}
		return c.Next()
	})
	app.Use(RateLimit("activities", 1, time.Minute))
	app.All("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(method, user string) int {
		req := httptest.NewRequest(method, "/", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, send(http.MethodPost, "1"))
	require.Equal(t, fiber.StatusTooManyRequests, send(http.MethodPut, "1"))
	require.Equal(t, fiber.StatusOK, send(http.MethodPost, "2"), "buckets are per principal")
	require.Equal(t, fiber.StatusOK, send(http.MethodGet, "1"), "reads are not throttled")
	require.Equal(t, fiber.StatusOK, send(http.MethodDelete, ""))
	require.Equal(t, fiber.StatusTooManyRequests, send(http.MethodDelete, ""), "anonymous callers share an ip bucket")
}

func TestRateLimitReportsEnvelope(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(5))
		return c.Next()
	})
	app.Use(RateLimit("reviews", 1, time.Minute))
	app.Put("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/", nil))
		require.NoError(t, err)
		if i == 0 {
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			continue
		}

		require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		var payload struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		require.NoError(t, decodeJSON(resp, &payload))
		require.False(t, payload.Success)
		require.Equal(t, "too many requests, slow down", payload.Message)
	}
}
