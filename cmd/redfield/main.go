package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redfield-bmc/redfield/internal/app"
	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/certificate"
	"github.com/redfield-bmc/redfield/internal/observability"
	"github.com/redfield-bmc/redfield/internal/platform/cache"
	"github.com/redfield-bmc/redfield/internal/platform/db"
	"github.com/redfield-bmc/redfield/internal/privilege"
	"github.com/redfield-bmc/redfield/internal/serviceroot"
	"github.com/redfield-bmc/redfield/internal/session"
	"github.com/redfield-bmc/redfield/internal/sessionsvc"
	"github.com/redfield-bmc/redfield/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "redfield: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var roleMap *privilege.RoleMap
	if cfg.RoleMapPath != "" {
		roleMap, err = privilege.LoadRoleMap(cfg.RoleMapPath)
		if err != nil {
			return fmt.Errorf("load role-map: %w", err)
		}
	}

	authenticator, cleanup, err := buildAuthenticator(ctx, cfg, roleMap)
	if err != nil {
		return err
	}
	defer cleanup()

	store, memStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()

	strategy, challenges, err := app.NewStrategy(cfg, store, authenticator)
	if err != nil {
		return err
	}
	guard, err := app.NewGuard(logger, privilege.DefaultTable(), strategy, challenges, metrics)
	if err != nil {
		return fmt.Errorf("build guard: %w", err)
	}

	systems := system.NewRegistry(
		system.System{ID: 1, Name: "1", PowerState: system.PowerOn},
	)
	certificates := certificate.NewRegistry()

	sessionHandler := sessionsvc.NewHandler(logger, store, authenticator, cfg.SessionTTL)
	sessionHandler.MaxSessions = cfg.SessionMax
	sessionHandler.OnSessionCount = metrics.SetActiveSessions

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Guard:        guard,
		ServiceRoot:  serviceroot.NewHandler(cfg.ServiceName, cfg.ServiceID),
		Systems:      system.NewHandler(logger, systems),
		Certificates: certificate.NewHandler(logger, certificates),
		Sessions:     sessionHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if memStore != nil && cfg.SessionSweepInterval > 0 {
		group.Go(func() error {
			err := memStore.RunSweeper(ctx, cfg.SessionSweepInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func buildAuthenticator(ctx context.Context, cfg *app.Config, roleMap *privilege.RoleMap) (authn.Authenticator, func(), error) {
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return authn.NewAccountAuthenticator(pool, roleMap), pool.Close, nil
	}
	accounts, err := authn.LoadAccounts(cfg.AccountsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load accounts: %w", err)
	}
	static, err := authn.NewStaticAuthenticator(accounts, roleMap)
	if err != nil {
		return nil, nil, err
	}
	return static, func() {}, nil
}

func buildStore(ctx context.Context, cfg *app.Config) (session.Store, *session.MemoryStore, error) {
	switch cfg.SessionBackend {
	case "redis":
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return session.NewRedisStore(client, cfg.SessionTTL), nil, nil
	case "memory":
		store := session.NewMemoryStore(cfg.SessionTTL)
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend: %s", cfg.SessionBackend)
	}
}
