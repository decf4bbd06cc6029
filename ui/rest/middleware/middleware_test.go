package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery_RendersGenericErrors(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/typed", func(c *fiber.Ctx) error {
		utils.PanicIfNeeded(pkgError.NotFoundError("agent not found"))
		return nil
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/typed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body utils.ResponseData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND_ERROR", body.Code)
	assert.Equal(t, "agent not found", body.Message)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestBasicAuth(t *testing.T) {
	_, err := BasicAuth(nil)
	assert.Error(t, err)
	_, err = BasicAuth([]string{"missing-secret"})
	assert.Error(t, err)

	auth, err := BasicAuth([]string{"admin:secret"})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(auth)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
