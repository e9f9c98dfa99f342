// Command audit-tail consumes the audit topic and stores each event in
// Postgres, or logs it when DATABASE_URL is unset.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certifier/internal/audit"
	"certifier/internal/platform/config"
	"certifier/internal/platform/database"
	"certifier/internal/platform/kafka/consumer"
	"certifier/internal/platform/logger"
)

func main() {
	group := flag.String("group", "certifier-audit-tail", "Kafka consumer group")
	fromStart := flag.Bool("from-start", true, "Start from the earliest offset when the group has none")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log, *group, *fromStart); err != nil {
		log.Error("audit-tail stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, group string, fromStart bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink audit.Store = audit.NewLogStore(log)
	if cfg.Database.URL != "" {
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		sink = audit.NewPostgresStore(pool.DB())
	}

	reset := "latest"
	if fromStart {
		reset = "earliest"
	}
	c, err := consumer.New(consumer.Config{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         group,
		Topics:          []string{cfg.Kafka.AuditTopic},
		AutoOffsetReset: reset,
	}, audit.NewConsumerHandler(sink, log), log)
	if err != nil {
		return err
	}

	log.Info("tailing audit topic", "topic", cfg.Kafka.AuditTopic, "group", group)
	c.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Stop(stopCtx)
}
