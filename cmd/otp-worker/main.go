// otp-worker consumes OTP delivery messages from the broker and hands the
// codes to the configured delivery channel. Without SMTP or SMS credentials
// it logs the delivery, which is enough for local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.Setup()

	slog.Info("Starting otp-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the delivery worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := amqp.ConsumeWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, deliver)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped gracefully")
}

// deliver sends the code to the user. Email and SMS integrations plug in
// here; for now the code goes to the log.
func deliver(msg *amqp.OTPMessage) error {
	channel := "email"
	target := msg.Email
	if target == "" {
		channel = "sms"
		target = msg.Phone
	}
	if target == "" {
		// Nothing to deliver to; drop rather than requeue forever.
		slog.Warn("OTP message without contact details", "user_id", msg.UserID)
		return nil
	}

	slog.Info("OTP delivery",
		"user_id", msg.UserID,
		"channel", channel,
		"target", target,
		"code", msg.Code)
	return nil
}
