package app

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

	"cookie-auth/internal/config"
	"cookie-auth/internal/handler"
	"cookie-auth/internal/middleware"
	"cookie-auth/internal/router"
	"cookie-auth/internal/service"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	count, err := store.Count(ctx)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	slog.Info("user store ready", "driver", cfg.StoreDriver, "users", count)

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService, err := service.NewAuthService(store, service.NewPasswordHasher(cfg.BcryptCost), tokens)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.NewCookieStrategy(cfg.CookieName, authService, authService))
	authHandler := handler.NewAuthHandler(authService, handler.CookieSettings{
		Name:   cfg.CookieName,
		Secure: cfg.IsProduction(),
	})
	healthHandler := handler.NewHealthHandler(store)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   authHandler,
		Health: healthHandler,
		Docs:   handler.NewDocsHandler(cfg.DocsPath),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		cleanupFuncs: []func(){closeStore},
	}, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
