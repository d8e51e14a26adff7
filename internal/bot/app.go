// Package bot initializes and runs the verification bot: it wires the
// identity store, the evidence fetcher, the verification workflow and the
// Discord adapter, and handles graceful shutdown.
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skobelev/gatewarden/internal/bot/config"
	"github.com/skobelev/gatewarden/internal/bot/discord"
	"github.com/skobelev/gatewarden/internal/bot/evidence"
	"github.com/skobelev/gatewarden/internal/bot/identity"
	"github.com/skobelev/gatewarden/internal/bot/workflow"
	"github.com/skobelev/gatewarden/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *identity.Store
	adapter *discord.Adapter
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewDefault()

	store, err := identity.Open(c.ForumIDLogPath)
	if err != nil {
		return nil, fmt.Errorf("identity store init error: %w", err)
	}

	adapter, err := discord.New(c, store, logger.With("component", "discord"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("discord init error: %w", err)
	}

	fetcher := evidence.NewHTTPFetcher(c.VerifyCookies, c.ActivityClass, c.FetchTimeout,
		logger.With("component", "evidence"))

	svc := workflow.NewService(store, fetcher, adapter, adapter, adapter, c,
		logger.With("component", "workflow"))
	adapter.SetWorkflow(svc)

	return &App{config: c, logger: logger, store: store, adapter: adapter}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting bot...")

	app.initSignalHandler(cancelFunc)

	if err := app.adapter.Open(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return
	}

	<-ctx.Done()

	app.logger.Info(ctx, "Shutting down...")
	if err := app.adapter.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
