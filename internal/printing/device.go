package printing

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"ms-boxoffice/internal/apperrors"
)

// DevicePrinter writes raw ESC/POS to a printer device file such as
// /dev/usb/lp0 or to a network printer given as tcp://host:9100.
type DevicePrinter struct {
	Target  string
	Timeout time.Duration

	mu sync.Mutex
}

func (p *DevicePrinter) open(ctx context.Context) (io.WriteCloser, error) {
	if addr, ok := strings.CutPrefix(p.Target, "tcp://"); ok {
		d := net.Dialer{Timeout: p.Timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		if p.Timeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(p.Timeout))
		}
		return conn, nil
	}
	return os.OpenFile(p.Target, os.O_WRONLY|os.O_APPEND, 0)
}

// Print writes the payload once per copy. Jobs are serialized so two
// receipts never interleave on the paper.
func (p *DevicePrinter) Print(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", apperrors.ErrPrinting, p.Target, err)
	}
	defer w.Close()

	for i := 0; i < job.Copies; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrPrinting, err)
		}
		if _, err := w.Write(job.Payload); err != nil {
			return fmt.Errorf("%w: write copy %d: %v", apperrors.ErrPrinting, i+1, err)
		}
	}
	return nil
}
