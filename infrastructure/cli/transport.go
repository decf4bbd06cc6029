package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/emundo/emubot/botengine/domain"
	domainCli "github.com/emundo/emubot/domains/cli"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/emundo/emubot/ui/websocket"
	"github.com/emundo/emubot/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const Name = "cli"

type Config struct {
	WebhookPath string `mapstructure:"webhook_path" json:"webhook_path" env:"WEBHOOK_PATH"`
}

// Transport serves the HTTP interface of the interactive CLI client. Replies
// are returned in the POST response; Deliver pushes over the websocket hub.
type Transport struct {
	cfg          Config
	router       fiber.Router
	hub          *websocket.Hub
	fallbackText string

	routesOnce sync.Once
	handler    atomic.Pointer[domain.MessageHandler]
}

// New creates the transport. fallbackText replaces responses the CLI cannot
// render; hub may be nil when proactive delivery is not needed.
func New(cfg Config, router fiber.Router, hub *websocket.Hub, fallbackText string) *Transport {
	return &Transport{cfg: cfg, router: router, hub: hub, fallbackText: fallbackText}
}

func (t *Transport) Name() string {
	return Name
}

func (t *Transport) Init(_ context.Context, handler domain.MessageHandler) error {
	if t.cfg.WebhookPath == "" {
		return pkgError.ValidationError("cli: webhook_path: cannot be blank")
	}
	t.handler.Store(&handler)

	t.routesOnce.Do(func() {
		t.router.Post(t.cfg.WebhookPath, t.receive)
		t.router.Get(t.cfg.WebhookPath+"/hello", t.hello)
		if t.hub != nil {
			t.hub.RegisterRoutes(t.router, t.cfg.WebhookPath+"/ws")
		}
	})

	logrus.Infof("[CLI] Listening on %s", t.cfg.WebhookPath)
	return nil
}

func (t *Transport) Deinit(_ context.Context) error {
	t.handler.Store(nil)
	return nil
}

func (t *Transport) Deliver(_ context.Context, response domain.ChatResponse) error {
	if t.hub == nil {
		return errors.New("cli: no websocket hub configured")
	}
	t.hub.Push(response.RecipientID, t.convertResponse(response))
	return nil
}

func (t *Transport) receive(c *fiber.Ctx) error {
	current := t.handler.Load()
	if current == nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	var request domainCli.MessageRequest
	if err := c.BodyParser(&request); err != nil {
		return reject(c, pkgError.PayloadError(err.Error()))
	}
	if err := validations.ValidateCliMessage(c.UserContext(), request); err != nil {
		return reject(c, pkgError.PayloadError(err.Error()))
	}

	req := domain.NewInitialRequest()
	if request.Type == domainCli.TypeMessage {
		req = domain.NewTextRequest(request.Text, false)
	}

	result := (*current)(c.UserContext(), req, request.ID)
	status := result.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if result.IsNoResponse() {
		return c.SendStatus(status)
	}

	responses := make([]domainCli.MessageResponse, 0, len(result.Payload))
	for _, response := range result.Payload {
		responses = append(responses, t.convertResponse(response))
	}
	return c.Status(status).JSON(responses)
}

// hello registers a new CLI user and returns the id it has to send with
// every following message.
func (t *Transport) hello(c *fiber.Ctx) error {
	current := t.handler.Load()
	if current == nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	id := uuid.NewString()
	result := (*current)(c.UserContext(), domain.NewInitialRequest(), id)
	if result.UserID != "" {
		id = result.UserID
	}

	logrus.WithField("user_id", id).Debug("[CLI] New client")
	return c.JSON(domainCli.HelloResponse{ID: id})
}

func (t *Transport) convertResponse(response domain.ChatResponse) domainCli.MessageResponse {
	if response.Message.Type == domain.MessageTypeText {
		return domainCli.MessageResponse{Text: response.Message.Text, ID: response.RecipientID}
	}

	logrus.WithField("type", response.Message.Type).Error("[CLI] Response type not supported by the CLI client")
	return domainCli.MessageResponse{Text: t.fallbackText, ID: response.RecipientID}
}

func reject(c *fiber.Ctx, err pkgError.GenericError) error {
	return c.Status(err.StatusCode()).JSON(utils.ResponseData{
		Status:  err.StatusCode(),
		Code:    err.ErrCode(),
		Message: err.Error(),
	})
}
