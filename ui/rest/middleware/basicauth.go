package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

// BasicAuth protects a group with the given "user:secret" credentials.
// CORS preflight requests pass without credentials.
func BasicAuth(credentials []string) (fiber.Handler, error) {
	if len(credentials) == 0 {
		return nil, fmt.Errorf("basic auth requires at least one <user>:<secret> credential")
	}

	account := make(map[string]string, len(credentials))
	for _, credential := range credentials {
		user, secret, ok := strings.Cut(strings.TrimSpace(credential), ":")
		if !ok || user == "" || secret == "" {
			return nil, fmt.Errorf("basic auth credential %q is not in the format <user>:<secret>", credential)
		}
		account[user] = secret
	}

	return basicauth.New(basicauth.Config{
		Users: account,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
	}), nil
}
