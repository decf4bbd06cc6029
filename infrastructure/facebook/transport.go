package facebook

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/emundo/emubot/botengine/domain"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/msgworker"
	"github.com/emundo/emubot/pkg/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const Name = "facebook"

type Config struct {
	WebhookPath     string `mapstructure:"webhook_path" json:"webhook_path" env:"WEBHOOK_PATH"`
	URL             string `mapstructure:"url" json:"url" env:"URL"`
	Version         string `mapstructure:"version" json:"version" env:"VERSION"`
	AppSecret       string `mapstructure:"app_secret" json:"-" env:"APP_SECRET"`
	PageAccessToken string `mapstructure:"page_access_token" json:"-" env:"PAGE_ACCESS_TOKEN"`
	VerifyToken     string `mapstructure:"verify_token" json:"-" env:"VERIFY_TOKEN"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.WebhookPath, validation.Required),
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.AppSecret, validation.Required),
		validation.Field(&c.PageAccessToken, validation.Required),
		validation.Field(&c.VerifyToken, validation.Required),
	)
}

// Transport receives Messenger webhooks and answers through the Send API.
// Events are processed on the worker pool so the replies of one user keep
// their order.
type Transport struct {
	cfg    Config
	router fiber.Router
	pool   *msgworker.Pool

	routesOnce sync.Once
	handler    atomic.Pointer[domain.MessageHandler]
}

func New(cfg Config, router fiber.Router, pool *msgworker.Pool) *Transport {
	return &Transport{cfg: cfg, router: router, pool: pool}
}

func (t *Transport) Name() string {
	return Name
}

func (t *Transport) Init(_ context.Context, handler domain.MessageHandler) error {
	if err := t.cfg.Validate(); err != nil {
		return pkgError.ValidationError("facebook: " + err.Error())
	}
	t.handler.Store(&handler)

	t.routesOnce.Do(func() {
		t.router.Get(t.cfg.WebhookPath, t.verify)
		t.router.Post(t.cfg.WebhookPath, t.receive)
	})

	logrus.Infof("[FACEBOOK] Listening for webhooks on %s", t.cfg.WebhookPath)
	return nil
}

// Deinit detaches the handler; routes stay registered and answer 503.
func (t *Transport) Deinit(_ context.Context) error {
	t.handler.Store(nil)
	return nil
}

func (t *Transport) Deliver(ctx context.Context, response domain.ChatResponse) error {
	msg, ok := convertResponse(response.Message)
	if !ok {
		return nil
	}
	_, err := t.send(ctx, response.RecipientID, msg)
	return err
}

func (t *Transport) verify(c *fiber.Ctx) error {
	if c.Query("hub.mode") == "subscribe" && c.Query("hub.verify_token") == t.cfg.VerifyToken {
		return c.SendString(c.Query("hub.challenge"))
	}

	logrus.Warn("[FACEBOOK] Webhook verification failed")
	return reject(c, pkgError.WebhookError("webhook verification failed"))
}

func (t *Transport) receive(c *fiber.Ctx) error {
	current := t.handler.Load()
	if current == nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	body := c.Body()
	if !utils.VerifySignatureHeader(c.Get("X-Hub-Signature"), body, []byte(t.cfg.AppSecret)) {
		logrus.Warn("[FACEBOOK] Rejecting webhook with invalid signature")
		return reject(c, pkgError.WebhookError("invalid X-Hub-Signature"))
	}

	if gjson.GetBytes(body, "object").String() != "page" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	gjson.GetBytes(body, "entry").ForEach(func(_, entry gjson.Result) bool {
		entry.Get("messaging").ForEach(func(_, event gjson.Result) bool {
			t.dispatch(*current, []byte(event.Raw))
			return true
		})
		return true
	})

	return c.Status(fiber.StatusOK).SendString("EVENT_RECEIVED")
}

func (t *Transport) dispatch(handler domain.MessageHandler, raw []byte) {
	req, userID := convertRequest(raw)
	if userID == "" {
		logrus.Warn("[FACEBOOK] Skipping messaging event without sender")
		return
	}

	job := msgworker.Job{
		Platform: Name,
		UserID:   userID,
		Handler: func(ctx context.Context) error {
			result := handler(ctx, req, userID)
			if result.IsNoResponse() {
				return nil
			}
			return t.deliverAll(ctx, result.Payload)
		},
	}

	if t.pool == nil {
		go func() {
			if err := job.Handler(context.Background()); err != nil {
				logrus.WithError(err).Error("[FACEBOOK] Processing failed")
			}
		}()
		return
	}
	if err := t.pool.Dispatch(job); err != nil {
		// Messenger already got its 200, so the message is lost; only the log keeps it.
		logrus.WithError(err).WithField("reason", msgworker.ReasonOf(err)).Warn("[FACEBOOK] Inbound message not processed")
	}
}

// deliverAll sends responses one after another in order. A failed message
// does not stop the rest of the batch.
func (t *Transport) deliverAll(ctx context.Context, responses []domain.ChatResponse) error {
	var errs []error
	for _, response := range responses {
		if err := t.Deliver(ctx, response); err != nil {
			logrus.WithError(err).WithField("recipient", response.RecipientID).Error("[FACEBOOK] Failed to send message")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func reject(c *fiber.Ctx, err pkgError.GenericError) error {
	return c.Status(err.StatusCode()).JSON(utils.ResponseData{
		Status:  err.StatusCode(),
		Code:    err.ErrCode(),
		Message: err.Error(),
	})
}
