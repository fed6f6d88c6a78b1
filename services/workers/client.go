// Package workers implements the HTTP client for backend generation workers.
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/genrelay/genrelay/models"
	"github.com/genrelay/genrelay/services"
	"github.com/genrelay/genrelay/services/rotation"
	"go.uber.org/zap"
)

// workerRequest is the wire payload sent to a worker.
type workerRequest struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt,omitempty"`
	PromptA   string `json:"prompt_a,omitempty"`
	PromptB   string `json:"prompt_b,omitempty"`
}

// workerResponse is the wire payload returned by a worker.
type workerResponse struct {
	Output string `json:"output"`
}

// Client calls backend workers over HTTP. Each call draws the next credential
// from the shared rotator; an empty credential pool aborts the call before
// any network traffic.
type Client struct {
	httpClient *http.Client
	rotator    *rotation.CredentialRotator
	logger     *zap.Logger
}

// NewClient creates a worker client. The timeout is a backstop only; the
// router applies the authoritative per-call deadline through the context.
func NewClient(rotator *rotation.CredentialRotator, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		rotator:    rotator,
		logger:     logger,
	}
}

// Call posts the payload to one worker and returns its output. Transport
// errors, timeouts and non-2xx statuses are all reported as a backend
// failure so the router treats them uniformly.
func (c *Client) Call(ctx context.Context, backend string, op models.OperationKind, payload models.GenerationPayload) (string, error) {
	credential, err := c.rotator.Next()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(workerRequest{
		Operation: string(op),
		Prompt:    payload.Prompt,
		PromptA:   payload.PromptA,
		PromptB:   payload.PromptB,
	})
	if err != nil {
		return "", services.WrapError(services.ErrorTypeInternal, "failed to encode worker request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, backend, bytes.NewReader(body))
	if err != nil {
		return "", services.WrapError(services.ErrorTypeInternal, "failed to build worker request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.WrapUnavailable("worker request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain a bounded slice of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("worker returned error status",
			zap.String("backend", backend),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return "", services.NewDomainError(
			services.ErrorTypeUnavailable,
			fmt.Sprintf("worker returned status %d", resp.StatusCode),
			nil,
		).WithDetail("status", resp.StatusCode)
	}

	var out workerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", services.WrapUnavailable("failed to decode worker response", err)
	}
	if out.Output == "" {
		return "", services.WrapUnavailable("worker returned empty output", nil)
	}

	return out.Output, nil
}
