package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/smart-student-hub/internal/utils"
)

// RateLimit throttles state-changing requests per principal within bucket.
// Reads pass through untouched. Requests without a principal share a bucket
// per client IP.
func RateLimit(bucket string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Next: func(c *fiber.Ctx) bool {
			switch c.Method() {
			case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
				return true
			}
			return false
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return rateLimitKey(bucket, c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, slow down")
		},
	})
}

func rateLimitKey(bucket string, c *fiber.Ctx) string {
	if id := userIDFrom(c); id != 0 {
		return bucket + ":user:" + strconv.FormatUint(uint64(id), 10)
	}
	return bucket + ":ip:" + c.IP()
}
