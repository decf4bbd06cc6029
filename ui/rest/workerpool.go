package rest

import (
	"github.com/emundo/emubot/pkg/msgworker"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// InitRestWorkerPool serves the statistics of the inbound worker pool.
func InitRestWorkerPool(app fiber.Router, pool *msgworker.Pool) {
	app.Get("/workers", func(c *fiber.Ctx) error {
		if pool == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
				Status:  fiber.StatusServiceUnavailable,
				Code:    "WORKER_POOL_DISABLED",
				Message: "Worker pool not initialized",
			})
		}
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Worker pool statistics",
			Results: pool.GetStats(),
		})
	})
}
