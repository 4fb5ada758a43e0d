package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/frontdesk-api/pkg/circuitbreaker"
)

// Preview tells the client where the document can be viewed.
type Preview struct {
	URL       string    `json:"url,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	// Shell is set when the desktop shell opened its own window.
	Shell bool `json:"shell"`
}

// Previewer hands a finished document to a viewer for inspection or printing.
type Previewer interface {
	Preview(ctx context.Context, filename string, data []byte) (*Preview, error)
}

// StorePreviewer parks the document in the document store; the client opens
// the returned URL in a new tab.
type StorePreviewer struct {
	store *DocumentStore
}

var _ Previewer = (*StorePreviewer)(nil)

func NewStorePreviewer(store *DocumentStore) *StorePreviewer {
	return &StorePreviewer{store: store}
}

func (p *StorePreviewer) Preview(ctx context.Context, filename string, data []byte) (*Preview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := p.store.Put(filename, data)
	return &Preview{URL: doc.URL, ExpiresAt: doc.ExpiresAt}, nil
}

// shellReply is what the desktop shell answers to a preview request.
type shellReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ShellPreviewer posts the document to the desktop shell, which opens it in
// a native window. Calls go through a circuit breaker so a closed shell
// fails fast.
type ShellPreviewer struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

var _ Previewer = (*ShellPreviewer)(nil)

func NewShellPreviewer(url string, timeout time.Duration, logger *zerolog.Logger) *ShellPreviewer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cb := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "shell-preview",
		TripAfter:   3,
		OpenTimeout: 30 * time.Second,
	}, logger)
	return &ShellPreviewer{
		url:    url,
		client: &http.Client{Timeout: timeout},
		cb:     cb,
	}
}

func (p *ShellPreviewer) Preview(ctx context.Context, filename string, data []byte) (*Preview, error) {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.post(ctx, filename, data)
	})
	if err != nil {
		return nil, fmt.Errorf("shell preview failed: %w", err)
	}
	return &Preview{Shell: true}, nil
}

func (p *ShellPreviewer) post(ctx context.Context, filename string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	var reply shellReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("unexpected reply (status %d): %w", resp.StatusCode, err)
	}
	if !reply.Success {
		if reply.Error == "" {
			reply.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("shell refused preview: %s", reply.Error)
	}
	return nil
}
