package middleware

import (
	"fmt"

	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns panics raised through utils.PanicIfNeeded into the JSON
// envelope. Typed errors keep their status and code.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			res := utils.ResponseData{
				Status:  fiber.StatusInternalServerError,
				Code:    pkgError.InternalServerError("").ErrCode(),
				Message: fmt.Sprintf("%v", recovered),
			}
			if typed, ok := recovered.(pkgError.GenericError); ok {
				res.Status = typed.StatusCode()
				res.Code = typed.ErrCode()
				res.Message = typed.Error()
			}

			entry := logrus.WithFields(logrus.Fields{"path": ctx.Path(), "status": res.Status})
			if res.Status >= fiber.StatusInternalServerError {
				entry.Errorf("[REST] Panic recovered: %v", recovered)
			} else {
				entry.Debugf("[REST] Request rejected: %v", recovered)
			}

			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
