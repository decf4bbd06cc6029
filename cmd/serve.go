package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/core/config"
	"github.com/emundo/emubot/infrastructure/cli"
	"github.com/emundo/emubot/infrastructure/facebook"
	"github.com/emundo/emubot/infrastructure/slack"
	"github.com/emundo/emubot/pkg/msgworker"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/emundo/emubot/ui/rest"
	"github.com/emundo/emubot/ui/rest/middleware"
	"github.com/emundo/emubot/ui/websocket"
	"github.com/emundo/emubot/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat webhook and the admin API",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	pool := msgworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	pool.Start(ctx)
	defer pool.Stop()

	serverID := utils.GetPersistentServerID(cfg.App.ServerID, cfg.App.StoragePath)
	hub := websocket.NewHub(app.vk, serverID)
	go hub.Run(ctx)

	server := fiber.New(fiber.Config{
		AppName:               "emubot",
		DisableStartupMessage: true,
		ServerHeader:          "Hidden",
	})

	server.Use(requestid.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	server.Use(middleware.Recovery())
	server.Use(helmet.New())
	if cfg.App.Debug {
		server.Use(logger.New())
	}

	root := server.Group(cfg.App.BasePath)

	transport, err := newTransport(cfg, root, pool, hub)
	if err != nil {
		return err
	}
	if err := transport.Init(ctx, app.engine.HandlerFor(transport.Name())); err != nil {
		return fmt.Errorf("failed to initialize %s transport: %w", transport.Name(), err)
	}

	api := root.Group("/api")
	rest.InitRestHealth(api, usecase.NewHealthService(app.checks...))

	if len(cfg.App.BasicAuth) == 0 {
		logrus.Warn("[REST] No basic auth credentials configured, the admin API is disabled")
	} else {
		auth, err := middleware.BasicAuth(cfg.App.BasicAuth)
		if err != nil {
			return err
		}
		api.Use(auth)

		rest.InitRestAgent(api, usecase.NewAgentService(app.engine, app.backend.Contexts, app.pseudonymizer))
		rest.InitRestMonitor(api, app.monitor, startedAt)
		rest.InitRestWorkerPool(api, pool)
	}

	go func() {
		<-ctx.Done()
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := transport.Deinit(shutdownCtx); err != nil {
			logrus.Errorf("[REST] Error while stopping %s transport: %v", transport.Name(), err)
		}
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"platform":  transport.Name(),
		"nlu":       cfg.Platform.Nlu.Platform,
		"agents":    len(cfg.Agents),
		"server_id": serverID,
	}).Infof("[REST] Listening on :%s", cfg.App.Port)

	if err := server.Listen(":" + cfg.App.Port); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	logrus.Info("[APP] Application stopped cleanly.")
	return nil
}

func newTransport(cfg *config.Config, router fiber.Router, pool *msgworker.Pool, hub *websocket.Hub) (domain.ChatTransport, error) {
	chat := cfg.Platform.Chat
	switch chat.Platform {
	case facebook.Name:
		return facebook.New(chat.Facebook, router, pool), nil
	case slack.Name:
		return slack.New(chat.Slack, router, pool), nil
	case cli.Name:
		return cli.New(chat.Cli, router, hub, cfg.Messages.HandlingBetweenCoreAndChatAdapter), nil
	}
	return nil, fmt.Errorf("unknown chat platform %q", chat.Platform)
}
