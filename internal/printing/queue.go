package printing

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-boxoffice/internal/apperrors"
)

// QueuePrinter hands jobs to Kafka; cmd/print-worker forwards them to the
// relay. Print succeeds once the job is queued.
type QueuePrinter struct {
	Producer Publisher
	Topic    string
}

func (p *QueuePrinter) Print(ctx context.Context, job Job) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: encode job: %v", apperrors.ErrPrinting, err)
	}
	if err := p.Producer.Publish(ctx, p.Topic, job.Reference, value); err != nil {
		return fmt.Errorf("%w: queue job: %v", apperrors.ErrPrinting, err)
	}
	return nil
}
