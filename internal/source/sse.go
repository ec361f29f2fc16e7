package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/btouchard/peon-bridge/internal/event"
)

// SSESource subscribes to an OpenCode server's event stream.
type SSESource struct {
	url            string
	client         *http.Client
	reconnectDelay time.Duration
}

// NewSSESource creates a source for the server at baseURL. The stream is
// read from baseURL + "/event".
func NewSSESource(baseURL string, reconnectDelay time.Duration) *SSESource {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	return &SSESource{
		url:            strings.TrimRight(baseURL, "/") + "/event",
		client:         &http.Client{},
		reconnectDelay: reconnectDelay,
	}
}

// Run streams events until ctx is cancelled, reconnecting after the
// server closes the stream or becomes unreachable.
func (s *SSESource) Run(ctx context.Context, handle HandlerFunc) error {
	for {
		err := s.stream(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.Warn("event stream interrupted", "url", s.url, "error", err)
		} else {
			slog.Info("event stream closed by server", "url", s.url)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *SSESource) stream(ctx context.Context, handle HandlerFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	slog.Info("subscribed to event stream", "url", s.url)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()

		// A blank line terminates the frame.
		if line == "" {
			if data.Len() > 0 {
				dispatchFrame(data.Bytes(), handle)
				data.Reset()
			}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue // comments, event names, ids, retry hints
		}
		value = strings.TrimPrefix(value, " ")
		if data.Len() > 0 {
			data.WriteByte('\n')
		}
		data.WriteString(value)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

// globalFrame is the envelope used by OpenCode's /global/event endpoint.
type globalFrame struct {
	Payload json.RawMessage `json:"payload"`
}

func dispatchFrame(data []byte, handle HandlerFunc) {
	e, err := event.Decode(data)
	if err != nil {
		slog.Debug("skipping malformed event frame", "error", err)
		return
	}
	if e.Type == "" {
		var g globalFrame
		if json.Unmarshal(data, &g) == nil && len(g.Payload) > 0 {
			if inner, err := event.Decode(g.Payload); err == nil {
				e = inner
			}
		}
	}
	if e.Type == "" {
		return
	}
	handle(e)
}
