package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avkuzmin/gymcore/internal/db"
	"github.com/avkuzmin/gymcore/internal/handlers"
	"github.com/avkuzmin/gymcore/internal/logger"
	"github.com/avkuzmin/gymcore/internal/notifier"
	"github.com/avkuzmin/gymcore/internal/repository/otpstore"
	"github.com/avkuzmin/gymcore/internal/repository/postgres"
	"github.com/avkuzmin/gymcore/internal/service/auth"
	"github.com/avkuzmin/gymcore/internal/service/auth/tokenissuer"
	"github.com/avkuzmin/gymcore/internal/service/plan"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	app := &ServerApp{ListenAddr: c.ListenAddr}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// One-time code store: redis when configured, in-memory otherwise
	var codes otpstore.Store
	switch c.RedisAddr {
	case "":
		logger.Warn("Redis address not set, one-time codes kept in memory")
		codes = otpstore.NewMemoryStore()
	default:
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		codes = otpstore.NewRedisStore(client)
	}

	// Code delivery: AMQP broker when configured, log output otherwise
	var notify notifier.Notifier
	switch c.AmqpURL {
	case "":
		logger.Warn("AMQP url not set, one-time codes written to the log")
		notify = notifier.LogNotifier{Logger: logger}
	default:
		amqpNotifier, err := notifier.NewAMQP(c.AmqpURL)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to amqp broker. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = amqpNotifier.Close() })
		notify = amqpNotifier
	}

	// Initialize services
	issuer, err := tokenissuer.New(tokenissuer.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token issuer. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{InsecureCookies: c.InsecureCookies}, storage, codes, notify, issuer)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	planService, err := plan.NewService(storage.Plans())
	if err != nil {
		return nil, fmt.Errorf("error while creating plan service. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(authService, authService, planService, logger)

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	for _, closeFn := range s.closers {
		closeFn()
	}

	return err
}
