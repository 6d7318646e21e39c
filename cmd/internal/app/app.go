// Package app wires the auth server runtime: config, logging, persistence,
// session policy, and HTTP routes.
//
// It is intentionally small and deterministic to keep behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"userauth/cmd/identity"
	authapi "userauth/cmd/internal/auth/api"
	"userauth/cmd/internal/auth/session"
)

// App is the auth server runtime: it owns the HTTP server wiring and the
// lifecycle of the database pool.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
//
// Without AUTH_DATABASE_URL the app runs on an in-memory credential store:
// useful for development, useless for production (state dies with the
// process, and login throttling is off).
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	var (
		pool      *pgxpool.Pool
		dbEnabled bool
		store     identity.Store
	)

	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		store = identity.NewMemoryStore()
	} else {
		p, err := NewDBPool(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := ApplyMigrations(context.Background(), p, log); err != nil {
				p.Close()
				return nil, err
			}
		}

		pg, err := identity.NewPostgresStore(p)
		if err != nil {
			p.Close()
			return nil, err
		}

		log.Info("db.enabled.postgres_store")
		pool = p
		dbEnabled = true
		store = pg
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}
	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}
	sessions := session.NewService(sessCfg, store, codec)

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), store, sessions, pool)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    pool,
		dbEnabled: dbEnabled,
		auth:      auth,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth)

	var handler http.Handler = mux
	handler = WithSecurityHeaders(handler)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
