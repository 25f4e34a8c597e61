package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/hostel-booking/pkg/config"
	"github.com/you/hostel-booking/pkg/logger"
	"github.com/you/hostel-booking/pkg/mq"
	"github.com/you/hostel-booking/services/notification-service/internal/events"
	"github.com/you/hostel-booking/services/notification-service/internal/notifier"
	"github.com/you/hostel-booking/services/notification-service/internal/worker"
)

func main() {
	_ = godotenv.Load(".env")
	log := logger.New("notification-service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var n notifier.Notifier
	if cfg.SMTPHost != "" {
		n = notifier.NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		log.Warn("SMTP not configured, falling back to console notifier")
		n = notifier.NewConsole()
	}

	var cons *mq.Consumer
	for {
		cons, err = mq.NewConsumer(cfg.RabbitURL, "services", events.QueueBookingInformation, 16)
		if err == nil {
			break
		}
		log.WithError(err).Warn("rabbitmq connect failed, retrying in 2s")
		time.Sleep(2 * time.Second)
	}
	defer cons.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := worker.NewConsumer(cons, n, log).Run(ctx); err != nil {
			log.WithError(err).Error("consumer stopped")
		}
	}()
	log.Infof("notification-service consuming queue %s", events.QueueBookingInformation)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
	time.Sleep(200 * time.Millisecond)
	log.Info("notification-service stopped")
}
