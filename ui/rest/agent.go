package rest

import (
	domainAgent "github.com/emundo/emubot/domains/agent"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Agent struct {
	Service domainAgent.IAgentUsecase
}

func InitRestAgent(app fiber.Router, service domainAgent.IAgentUsecase) Agent {
	rest := Agent{Service: service}

	group := app.Group("/agents")
	group.Get("/", rest.List)
	group.Get("/:name/contexts", rest.ListContexts)
	group.Post("/:name/contexts", rest.PostContexts)
	group.Delete("/:name/contexts", rest.DeleteContexts)
	group.Delete("/:name/contexts/all", rest.DeleteAllContexts)

	return rest
}

func (handler *Agent) List(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Agents in query order",
		Results: handler.Service.List(c.UserContext()),
	})
}

func (handler *Agent) ListContexts(c *fiber.Ctx) error {
	request := domainAgent.ContextsRequest{UserID: c.Query("user_id")}

	contexts, err := handler.Service.ListContexts(c.UserContext(), c.Params("name"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Active contexts",
		Results: contexts,
	})
}

func (handler *Agent) PostContexts(c *fiber.Ctx) error {
	var request domainAgent.ContextsRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(asPayloadError(err))

	status, err := handler.Service.PostContexts(c.UserContext(), c.Params("name"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contexts posted",
		Results: status,
	})
}

func (handler *Agent) DeleteContexts(c *fiber.Ctx) error {
	var request domainAgent.ContextsRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(asPayloadError(err))

	status, err := handler.Service.DeleteContexts(c.UserContext(), c.Params("name"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contexts deleted",
		Results: status,
	})
}

func (handler *Agent) DeleteAllContexts(c *fiber.Ctx) error {
	request := domainAgent.ContextsRequest{UserID: c.Query("user_id")}
	if len(c.Body()) > 0 {
		err := c.BodyParser(&request)
		utils.PanicIfNeeded(asPayloadError(err))
	}

	status, err := handler.Service.DeleteAllContexts(c.UserContext(), c.Params("name"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "All contexts deleted",
		Results: status,
	})
}

// asPayloadError keeps nil as an untyped nil so PanicIfNeeded ignores it.
func asPayloadError(err error) error {
	if err == nil {
		return nil
	}
	return pkgError.PayloadError(err.Error())
}
