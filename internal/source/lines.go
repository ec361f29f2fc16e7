package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/btouchard/peon-bridge/internal/event"
)

// LineSource reads newline-delimited JSON events, one per line.
type LineSource struct {
	r io.Reader
}

// NewLineSource creates a LineSource reading from r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

// Run scans r until EOF. Blank and malformed lines are skipped. When ctx is
// cancelled Run returns once the current read completes.
func (s *LineSource) Run(ctx context.Context, handle HandlerFunc) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024) // 10MB max line

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		e, err := event.Decode(line)
		if err != nil {
			slog.Debug("skipping malformed event line", "error", err)
			continue
		}
		handle(e)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading events: %w", err)
	}
	return nil
}
