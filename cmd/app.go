package cmd

import (
	"context"
	"fmt"

	"github.com/emundo/emubot/botengine"
	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/botengine/interceptor"
	"github.com/emundo/emubot/botengine/repository"
	"github.com/emundo/emubot/core/config"
	"github.com/emundo/emubot/core/database"
	"github.com/emundo/emubot/domains/health"
	"github.com/emundo/emubot/infrastructure/nlu"
	"github.com/emundo/emubot/infrastructure/valkey"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// application holds the long-lived components shared by the commands.
type application struct {
	cfg *config.Config

	db      *gorm.DB
	vk      *valkey.Client
	monitor *botmonitor.Monitor

	backend       nlu.Backend
	pseudonymizer *interceptor.Pseudonymizer
	engine        *botengine.Engine

	checks []health.Check
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	app := &application{cfg: cfg}

	if cfg.Valkey.Enabled || cfg.Interceptors.PseudonymStore == config.PseudonymStoreValkey {
		vk, err := valkey.NewClient(cfg.Valkey.ClientConfig())
		if err != nil {
			return nil, err
		}
		app.vk = vk
		app.checks = append(app.checks, health.Check{
			EntityType: health.EntityValkey,
			EntityID:   cfg.Valkey.Address,
			Ping:       vk.Ping,
		})
		logrus.Infof("[VALKEY] Connected to %s", cfg.Valkey.Address)
	}

	if cfg.UsesPseudonyms() {
		store, err := app.pseudonymStore(ctx)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.pseudonymizer = interceptor.NewPseudonymizer(store)
	}

	interceptors, err := interceptor.Build(cfg.InterceptorNames(), interceptor.Deps{
		Pseudonymizer: app.pseudonymizer,
		Attachments:   interceptor.AttachmentGate{Reply: cfg.Interceptors.AttachmentText},
		Welcome:       interceptor.Welcome{Text: cfg.Messages.Welcome},
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build interceptors: %w", err)
	}

	app.backend, err = nlu.New(cfg.Platform.Nlu.Platform, nil, cfg.Platform.Nlu.Timeout)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.monitor = botmonitor.New(cfg.Monitor.Size, cfg.Monitor.TTL)

	app.engine, err = botengine.NewEngine(botengine.Config{
		Agents:       cfg.OrderedAgents(),
		Client:       app.backend.Client,
		Interceptors: interceptors,
		Messages:     cfg.Messages,
	}, app.monitor)
	if err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (app *application) pseudonymStore(ctx context.Context) (domain.PseudonymStore, error) {
	switch app.cfg.Interceptors.PseudonymStore {
	case config.PseudonymStoreValkey:
		return repository.NewValkeyPseudonymStore(app.vk), nil
	case config.PseudonymStoreDatabase:
		db, err := database.NewDatabase(app.cfg.Database, app.cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		app.db = db

		repo := repository.NewPseudonymGormRepository(db)
		if err := repo.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate pseudonym table: %w", err)
		}
		app.checks = append(app.checks, health.Check{
			EntityType: health.EntityDatabase,
			EntityID:   app.cfg.Database.Driver,
			Ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})
		return repo, nil
	}
	return repository.NewMemoryPseudonymStore(), nil
}

// Close releases the connections opened by newApplication.
func (app *application) Close() {
	if err := app.backend.Close(); err != nil {
		logrus.WithError(err).Warn("[NLU] Failed to close backend")
	}
	if app.vk != nil {
		app.vk.Close()
	}
	if app.db != nil {
		if sqlDB, err := app.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
