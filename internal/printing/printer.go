// Package printing delivers rendered receipts to the venue printers. A
// failed print never undoes a recorded sale; callers turn print errors into
// warnings.
package printing

import (
	"context"
	"fmt"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/utils"
)

// Job is what travels to a printer: ESC/POS bytes printed Copies times.
type Job struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Copies    int       `json:"copies"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func NewJob(reference string, copies int, payload []byte) Job {
	if copies < 1 {
		copies = 1
	}
	return Job{
		ID:        utils.GenerateUUID(),
		Reference: reference,
		Copies:    copies,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

type Printer interface {
	Print(ctx context.Context, job Job) error
}

// Publisher is the slice of the Kafka producer the queue printer needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// NopPrinter is used when printing is switched off.
type NopPrinter struct {
	Logger *logger.Logger
}

func (p NopPrinter) Print(_ context.Context, job Job) error {
	p.Logger.LogPrint(job.Reference, "printing disabled, job dropped")
	return apperrors.ErrPrintingDisabled
}

// New picks the printer for cfg.Mode.
func New(cfg config.PrinterConfig, producer Publisher, topic string, log *logger.Logger) (Printer, error) {
	switch cfg.Mode {
	case "", "none":
		return NopPrinter{Logger: log}, nil
	case "relay":
		return NewRelayPrinter(cfg.RelayURL, cfg.Timeout), nil
	case "queue":
		if producer == nil {
			return nil, fmt.Errorf("printer mode queue needs kafka enabled")
		}
		return &QueuePrinter{Producer: producer, Topic: topic}, nil
	default:
		return nil, fmt.Errorf("unknown printer mode %q", cfg.Mode)
	}
}
