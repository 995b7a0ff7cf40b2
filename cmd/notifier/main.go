// Command notifier consumes order.confirmed events, appends them to the
// order log and emails the buyer when RESEND_API_KEY is set.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/config"
	"github.com/iliyamo/ticket-ledger/internal/logging"
	"github.com/iliyamo/ticket-ledger/internal/notify"
	"github.com/iliyamo/ticket-ledger/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.Env)
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required")
	}

	var mailer queue.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewEmail(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		log.Warn("RESEND_API_KEY not set; confirmations are only logged")
	}

	consumer := queue.NewConsumer(cfg.RabbitMQURL, mailer, log)
	consumer.LogPath = cfg.OrderLogPath
	consumer.MailTimeout = cfg.NotifyTimeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", queue.OrderConfirmedQueue).Info("notifier started")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("notifier stopped")
		return
	}
	log.Info("notifier stopped")
}
