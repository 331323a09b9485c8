package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/swaggo/swag"
)

// SwaggerUI serves the API docs with the host and scheme the caller reached us on.
// fallbackHost (APP_HOST) is advertised when the request carries no Host header.
func SwaggerUI(info *swag.Spec, fallbackHost string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get(fiber.HeaderXForwardedProto); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		info.Host = advertisedHost(c.Get(fiber.HeaderHost), fallbackHost)
		info.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	}
}

func advertisedHost(requestHost, fallbackHost string) string {
	if h := strings.TrimSpace(requestHost); h != "" {
		return h
	}
	return fallbackHost
}
