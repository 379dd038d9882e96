package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/ai"
	"github.com/suPer8Hu/mcp-gateway/internal/chat"
	"github.com/suPer8Hu/mcp-gateway/internal/config"
	"github.com/suPer8Hu/mcp-gateway/internal/db"
	"github.com/suPer8Hu/mcp-gateway/internal/httpapi"
	"github.com/suPer8Hu/mcp-gateway/internal/httpapi/handlers"
	"github.com/suPer8Hu/mcp-gateway/internal/mcp"
	"github.com/suPer8Hu/mcp-gateway/internal/orders"
	"github.com/suPer8Hu/mcp-gateway/internal/store"
	"github.com/suPer8Hu/mcp-gateway/internal/store/rabbitmq"
	"github.com/suPer8Hu/mcp-gateway/internal/store/redisstore"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MinIdleConns:     cfg.DBMinIdleConns,
		StatementTimeout: cfg.DBStatementTime,
		Debug:            cfg.Debug,
	})
	if err != nil {
		slog.Error("database", "err", err)
		os.Exit(1)
	}
	defer db.Close(gdb)

	// optional collaborators stay nil interfaces when not configured
	var idem orders.IdempotencyStore
	if cfg.RedisURL != "" {
		rs, err := redisstore.New(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, idempotency disabled", "err", err)
		} else {
			defer rs.Close()
			idem = rs
		}
	}
	var events orders.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			slog.Warn("rabbitmq unavailable, order events disabled", "err", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	st := store.NewService(gdb, cfg.DBTimeout)
	ord := orders.NewService(gdb, cfg.DBTimeout, idem, events)
	dispatcher := mcp.NewDispatcher(st)

	provider := ai.NewOpenRouterProvider(
		cfg.OpenAIBaseURL,
		cfg.OpenAIAPIKey,
		cfg.ModelName,
		cfg.OpenRouterSiteURL,
		cfg.OpenRouterAppName,
		cfg.AITimeout,
	)
	chatSvc := chat.NewService(provider, dispatcher, cfg.ModelName)

	h := handlers.NewHandler(cfg, st, ord, dispatcher, chatSvc)
	mcpHTTP := mcp.NewHTTPHandler(mcp.NewServer(dispatcher, version))
	r := httpapi.NewRouter(h, mcpHTTP)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "app", cfg.AppName, "addr", cfg.HTTPAddr, "model", cfg.ModelName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}

func setupLogger(cfg config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h).With("app", cfg.AppName))
}
