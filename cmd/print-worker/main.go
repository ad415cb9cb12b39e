package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/printing"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
)

// Drains the print-jobs topic into the print relay. A job the relay rejects
// stays uncommitted and is retried on the next delivery.
func main() {
	log := logger.NewLogger("print-worker")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.PrintJobs}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	relay := printing.NewRelayPrinter(cfg.Printer.RelayURL, cfg.Printer.Timeout)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PrintJobs, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	err := consumer.Start(ctx, func(ctx context.Context, msg kafkago.Message) error {
		var job printing.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			// A malformed job will never print, so it is acknowledged.
			log.Error("PRINT", fmt.Sprintf("dropping undecodable job at offset %d: %v", msg.Offset, err))
			return nil
		}
		if err := relay.Print(ctx, job); err != nil {
			return err
		}
		log.LogPrint(job.Reference, "forwarded to relay")
		return nil
	})
	if err != nil {
		log.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
	}
	log.Info("APP", "Print worker stopped")
}
