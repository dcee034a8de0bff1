package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/kinesis"
	"github.com/example/storefront/internal/notification"
)

var notificationHandler *notification.Handler

func init() {
	cfg := config.LoadNotifier()
	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	notificationHandler = notification.NewHandler(emailSvc, cfg.StockAlertTo, log.Default())

	log.Printf("[Lambda Notifier] Initialized (SMTP: %s:%s)", cfg.SMTPHost, cfg.SMTPPort)
}

func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Notifier] Received %d records", len(batch.Records))
	return kinesis.HandleBatch(ctx, batch, notificationHandler.HandleEvent, log.Default()), nil
}

func main() {
	lambda.Start(handler)
}
