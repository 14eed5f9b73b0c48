package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	_ "github.com/lib/pq"

	"refhub/ref-edge/internal/audit"
	"refhub/ref-edge/internal/config"
	"refhub/ref-edge/internal/gate"
	"refhub/ref-edge/internal/gateway"
	"refhub/ref-edge/internal/observability"
	"refhub/ref-edge/internal/token"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	server *gateway.Server
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger()

	verifier, err := token.NewVerifier(cfg.Auth.SigningSecret, cfg.Auth.TokenLeeway)
	if err != nil {
		return nil, fmt.Errorf("create token verifier: %w", err)
	}

	policy := gate.NewPolicy(gate.Routes{
		AdminPrefix:      cfg.Routes.AdminPrefix,
		UserPrefix:       cfg.Routes.UserPrefix,
		ResourcePrefixes: cfg.Routes.ResourcePrefixes,
		LoginPath:        cfg.Routes.LoginPath,
		AdminHome:        cfg.Routes.AdminHome,
		UserHome:         cfg.Routes.UserHome,
	}, cfg.Routes.EnforceUserRoutes)

	var db *sql.DB
	var recorder gate.Recorder
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		recorder, err = audit.NewPostgresRecorder(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres decision recorder: %w", err)
		}
	} else {
		recorder = audit.NewFileRecorder(cfg.DecisionLogFile)
	}

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("parse upstream URL: %w", err)
	}

	middleware := gate.NewMiddleware(policy, verifier, cfg.Auth.CookieName, recorder, logger)
	server := gateway.New(cfg.HTTP, gateway.Deps{
		Gate:     middleware,
		Upstream: upstream,
		Log:      logger,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     db,
		server: server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("gateway starting", "addr", a.cfg.HTTP.Addr, "upstream", a.cfg.UpstreamURL)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
