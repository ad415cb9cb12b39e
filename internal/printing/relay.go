package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ms-boxoffice/internal/apperrors"
)

// RelayPrinter posts jobs to the print relay running next to the printer.
type RelayPrinter struct {
	URL    string
	Client *http.Client
}

func NewRelayPrinter(url string, timeout time.Duration) *RelayPrinter {
	return &RelayPrinter{
		URL:    strings.TrimRight(url, "/"),
		Client: &http.Client{Timeout: timeout},
	}
}

func (p *RelayPrinter) Print(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: encode job: %v", apperrors.ErrPrinting, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL+"/print", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", apperrors.ErrPrinting, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: relay unreachable: %v", apperrors.ErrPrinting, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: relay answered %s: %s", apperrors.ErrPrinting, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
