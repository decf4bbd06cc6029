package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/emundo/emubot/botengine/domain"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/msgworker"
	"github.com/emundo/emubot/pkg/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const Name = "slack"

type Config struct {
	WebhookPath   string `mapstructure:"webhook_path" json:"webhook_path" env:"WEBHOOK_PATH"`
	BotToken      string `mapstructure:"bot_token" json:"-" env:"BOT_TOKEN"`
	SigningSecret string `mapstructure:"signing_secret" json:"-" env:"SIGNING_SECRET"`
	// APIURL overrides the Web API base url, mostly for tests.
	APIURL string `mapstructure:"api_url" json:"api_url,omitempty" env:"API_URL"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.WebhookPath, validation.Required),
		validation.Field(&c.BotToken, validation.Required),
		validation.Field(&c.SigningSecret, validation.Required),
	)
}

// Transport receives Events API callbacks and replies with chat.postMessage.
type Transport struct {
	cfg    Config
	router fiber.Router
	pool   *msgworker.Pool
	api    *slack.Client

	routesOnce sync.Once
	handler    atomic.Pointer[domain.MessageHandler]
	// channels remembers the conversation each user last wrote from.
	channels sync.Map
}

func New(cfg Config, router fiber.Router, pool *msgworker.Pool) *Transport {
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Transport{
		cfg:    cfg,
		router: router,
		pool:   pool,
		api:    slack.New(cfg.BotToken, opts...),
	}
}

func (t *Transport) Name() string {
	return Name
}

func (t *Transport) Init(_ context.Context, handler domain.MessageHandler) error {
	if err := t.cfg.Validate(); err != nil {
		return pkgError.ValidationError("slack: " + err.Error())
	}
	t.handler.Store(&handler)

	t.routesOnce.Do(func() {
		t.router.Post(t.cfg.WebhookPath, t.receive)
	})

	logrus.Infof("[SLACK] Listening for events on %s", t.cfg.WebhookPath)
	return nil
}

func (t *Transport) Deinit(_ context.Context) error {
	t.handler.Store(nil)
	return nil
}

// Deliver posts a response into the user's last conversation, opening a
// direct message when the user has not written yet.
func (t *Transport) Deliver(ctx context.Context, response domain.ChatResponse) error {
	text, ok := renderText(response.Message)
	if !ok {
		logrus.WithField("type", response.Message.Type).Warn("[SLACK] dropping response of unsupported type")
		return nil
	}

	channel, err := t.channelFor(ctx, response.RecipientID)
	if err != nil {
		return err
	}

	if _, _, err := t.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return pkgError.WebhookError("chat.postMessage: " + err.Error())
	}
	return nil
}

func (t *Transport) channelFor(ctx context.Context, userID string) (string, error) {
	if ch, ok := t.channels.Load(userID); ok {
		return ch.(string), nil
	}

	channel, _, _, err := t.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return "", pkgError.WebhookError("conversations.open: " + err.Error())
	}
	t.channels.Store(userID, channel.ID)
	return channel.ID, nil
}

func (t *Transport) receive(c *fiber.Ctx) error {
	current := t.handler.Load()
	if current == nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	body := c.Body()
	if err := t.verify(c, body); err != nil {
		logrus.WithError(err).Warn("[SLACK] Rejecting request with invalid signature")
		return c.Status(fiber.StatusForbidden).JSON(utils.ResponseData{
			Status:  fiber.StatusForbidden,
			Code:    pkgError.WebhookError("").ErrCode(),
			Message: "invalid slack signature",
		})
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		perr := pkgError.PayloadError(err.Error())
		return c.Status(perr.StatusCode()).JSON(utils.ResponseData{
			Status:  perr.StatusCode(),
			Code:    perr.ErrCode(),
			Message: perr.Error(),
		})
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.JSON(challenge)

	case slackevents.CallbackEvent:
		if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			t.dispatch(*current, msg)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

func (t *Transport) verify(c *fiber.Ctx, body []byte) error {
	header := http.Header{}
	header.Set("X-Slack-Signature", c.Get("X-Slack-Signature"))
	header.Set("X-Slack-Request-Timestamp", c.Get("X-Slack-Request-Timestamp"))

	sv, err := slack.NewSecretsVerifier(header, t.cfg.SigningSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func (t *Transport) dispatch(handler domain.MessageHandler, msg *slackevents.MessageEvent) {
	// Ignore our own posts and other bots.
	if msg.BotID != "" || msg.SubType == "bot_message" || msg.User == "" {
		return
	}
	if msg.SubType != "" {
		logrus.WithField("subtype", msg.SubType).Debug("[SLACK] Ignoring message subtype")
		return
	}

	userID := msg.User
	t.channels.Store(userID, msg.Channel)
	req := domain.NewTextRequest(msg.Text, false)

	job := msgworker.Job{
		Platform: Name,
		UserID:   userID,
		Handler: func(ctx context.Context) error {
			result := handler(ctx, req, userID)
			if result.IsNoResponse() {
				return nil
			}
			for _, response := range result.Payload {
				if err := t.Deliver(ctx, response); err != nil {
					logrus.WithError(err).WithField("recipient", response.RecipientID).Error("[SLACK] Failed to post message")
				}
			}
			return nil
		},
	}

	if t.pool == nil {
		go job.Handler(context.Background())
		return
	}
	if err := t.pool.Dispatch(job); err != nil {
		logrus.WithError(err).WithField("reason", msgworker.ReasonOf(err)).Warn("[SLACK] Event not processed")
	}
}
