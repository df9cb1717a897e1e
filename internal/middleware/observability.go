package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillforge-go-api/internal/observability"
)

// Observability records request metrics and emits a structured access log line.
func Observability(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		status := c.Response().StatusCode()

		observability.HTTPRequests().WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		observability.HTTPLatency().WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		logger.Debug().
			Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("correlation_id", GetCorrelationID(c)).
			Msg("request handled")

		return err
	}
}
