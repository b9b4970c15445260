package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/huutix/storefront/internal/config"
	"github.com/huutix/storefront/internal/logger"
	"github.com/huutix/storefront/internal/notifier"
)

const groupID = "storefront-notifier-group"

func main() {
	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalw("failed to load config", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        groupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			zap.S().Errorw("failed to close kafka reader", "error", err)
		}
	}()

	mailer := notifier.NewMailer(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		To:       cfg.MailTo,
	})

	zap.S().Infow("consumer started", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("shutdown signal received, stopping consumer")
			return
		default:
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				zap.S().Errorw("failed to read message", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}

			if err := mailer.Handle(msg.Value); err != nil {
				zap.S().Errorw("failed to handle event", "error", err, "offset", msg.Offset)
			}
		}
	}
}
