package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/auto-dns/docker-unifi-sync/internal/config"
	"github.com/auto-dns/docker-unifi-sync/internal/inventory"
	"github.com/auto-dns/docker-unifi-sync/internal/server"
	"github.com/auto-dns/docker-unifi-sync/internal/unifi"
	dockerCli "github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

type App struct {
	dockerClient *dockerCli.Client
	httpServer   *http.Server
	logger       zerolog.Logger
}

// New creates a new App by wiring up all dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	// Docker CLI
	dockerClient, err := dockerCli.NewClientWithOpts(dockerCli.FromEnv, dockerCli.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	reader := inventory.NewReader(dockerClient, logger)

	// A session holds per-authentication cookie state, so the facade gets a
	// factory and builds one per request cycle.
	newSession := server.SessionFactory(func() (server.Session, error) {
		return unifi.NewSession(&cfg.Unifi, logger)
	})

	srv := server.New(cfg, reader, newSession, logger)

	return &App{
		dockerClient: dockerClient,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: srv.Routes(),
		},
		logger: logger,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.httpServer.Addr).Msg("Application starting")
		errCh <- a.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}

func (a *App) Close() error {
	var firstErr error
	if a.dockerClient != nil {
		if err := a.dockerClient.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close docker client: %w", err)
		}
	}
	return firstErr
}
