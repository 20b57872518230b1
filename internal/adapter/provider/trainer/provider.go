// Package trainer forwards calibration corrections to the AI training
// webhook.
package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Provider posts correction triples to a training endpoint. Callers treat it
// as best-effort; a failed delivery never rolls back a calibration.
type Provider struct {
	endpoint   string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider for the given webhook endpoint.
func NewProvider(endpoint, token string, logger *slog.Logger) *Provider {
	return &Provider{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "trainer"),
	}
}

type trainPayload struct {
	OriginalText   string `json:"original_text"`
	OriginalParse  string `json:"original_parse"`
	CorrectedParse string `json:"corrected_parse"`
	Reason         string `json:"reason,omitempty"`
}

// Train delivers one correction triple.
func (p *Provider) Train(ctx context.Context, originalText, originalParse, correctedParse, reason string) error {
	body, err := json.Marshal(trainPayload{
		OriginalText:   originalText,
		OriginalParse:  originalParse,
		CorrectedParse: correctedParse,
		Reason:         reason,
	})
	if err != nil {
		return fmt.Errorf("trainer: marshal payload: %w", err)
	}

	resp, err := p.doWithRetry(ctx, body)
	if err != nil {
		return fmt.Errorf("trainer: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("trainer: unexpected status %d", resp.StatusCode)
	}

	p.log.DebugContext(ctx, "correction delivered", slog.Int("status", resp.StatusCode))
	return nil
}

// doWithRetry executes the request with a single retry on 5xx or network
// errors. The body is rebuilt per attempt because http.Request bodies are
// single-use.
func (p *Provider) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	resp, err := p.do(ctx, body)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	p.log.WarnContext(ctx, "trainer retry", slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	time.Sleep(500 * time.Millisecond)

	return p.do(ctx, body)
}

func (p *Provider) do(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	return p.httpClient.Do(req)
}
