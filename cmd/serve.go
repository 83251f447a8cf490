package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/payment-instructions/internal/command"
	"github.com/eaglebank/payment-instructions/internal/handler"
	"github.com/eaglebank/payment-instructions/internal/query"
	"github.com/eaglebank/payment-instructions/internal/repository"
	"github.com/eaglebank/payment-instructions/shared/events"
	"github.com/eaglebank/payment-instructions/shared/middleware"
	sharedredis "github.com/eaglebank/payment-instructions/shared/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the payment instructions HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger
	opts := command.Options{
		SupportedCurrencies: cfg.Currencies.Supported,
		Logger:              logger,
	}

	// Redis connection (read cache + event streaming)
	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := sharedredis.NewClient(ctx, sharedredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client.Client
		opts.Publisher = events.NewBreakerPublisher(events.NewPublisher(redisClient, cfg.Events.Stream), logger, events.BreakerConfig{})
	}

	// Database connection (instruction journal)
	var queries handler.InstructionQuerier
	if cfg.Database.URL != "" {
		db, err := repository.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		readRepo := repository.NewInstructionReadRepository(db, redisClient, logger)
		opts.Writer = repository.NewInstructionWriteRepository(db)
		opts.ViewCache = readRepo
		queries = query.NewInstructionQueryService(readRepo)
	}

	// --- CQRS wiring ---
	commandSvc := command.NewPaymentCommandService(opts)
	paymentHandler := handler.NewPaymentHandler(commandSvc, queries)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.LoggingMiddleware(logger), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	paymentHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("payment instructions service starting",
			zap.String("port", cfg.Server.Port),
			zap.Bool("journal", cfg.Database.URL != ""),
			zap.Bool("redis", redisClient != nil),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
