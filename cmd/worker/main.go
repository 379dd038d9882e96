package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/suPer8Hu/mcp-gateway/internal/config"
	"github.com/suPer8Hu/mcp-gateway/internal/db"
	"github.com/suPer8Hu/mcp-gateway/internal/orders"
	"github.com/suPer8Hu/mcp-gateway/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	if cfg.RabbitURL == "" {
		slog.Error("RABBIT_URL is required for the order worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		StatementTimeout: cfg.DBStatementTime,
	})
	if err != nil {
		slog.Error("database", "err", err)
		os.Exit(1)
	}
	defer db.Close(gdb)

	svc := orders.NewService(gdb, cfg.DBTimeout, nil, nil)

	// strict concurrency control
	concurrency := workerConcurrency()
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, concurrency)
	if err != nil {
		slog.Error("rabbitmq", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries(ctx)
	if err != nil {
		slog.Error("consume", "err", err)
		os.Exit(1)
	}

	slog.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				start := time.Now()
				// in-flight jobs finish after shutdown starts
				jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.DBTimeout)
				herr := svc.ConfirmCreated(jctx, d.Type, d.Body)
				cancel()
				if herr != nil {
					slog.Warn("event rejected", "worker", workerID, "message_id", d.MessageId, "cost", time.Since(start), "err", herr)
				}
				if err := rabbitmq.Settle(d, herr); err != nil {
					slog.Error("settle failed", "worker", workerID, "message_id", d.MessageId, "err", err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				slog.Warn("delivery channel closed")
				msgs = nil
				stop()
				continue
			}
			jobs <- d
		}
	}
}
