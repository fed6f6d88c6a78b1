// Package routing selects backend workers and orchestrates bounded retries
// with a last-resort local fallback for generation requests.
package routing

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/genrelay/genrelay/internal/observability"
	"github.com/genrelay/genrelay/models"
	"github.com/genrelay/genrelay/services"
	"go.uber.org/zap"
)

// BackendCaller performs the outbound call to one backend worker. The router
// does not know what the worker does internally; it only needs the output on
// success or an error on failure.
type BackendCaller interface {
	Call(ctx context.Context, backend string, op models.OperationKind, payload models.GenerationPayload) (string, error)
}

// Config holds routing behavior knobs, bound once at startup.
type Config struct {
	// MaxAttempts bounds retries for one logical request. Each attempt binds
	// to exactly one backend selection.
	MaxAttempts int

	// CallTimeout aborts an individual backend call. A timeout is treated
	// identically to an error response.
	CallTimeout time.Duration

	// RetryWait is the constant pause between attempts.
	RetryWait time.Duration

	// FallbackBaseURL is the base for locally computed degraded results.
	FallbackBaseURL string

	// MaxPromptLength bounds prompt size for validation and for fallback
	// eligibility checks.
	MaxPromptLength int
}

// Service routes one inbound request across the worker pool.
type Service struct {
	cfg      Config
	selector *Selector
	caller   BackendCaller
	logger   *zap.Logger
}

// NewService creates a routing service.
func NewService(cfg Config, selector *Selector, caller BackendCaller, logger *zap.Logger) *Service {
	return &Service{
		cfg:      cfg,
		selector: selector,
		caller:   caller,
		logger:   logger,
	}
}

// Route is the single entry point for the request-handling layer. It
// validates the snapshotted payload, then tries up to MaxAttempts backends,
// marking each failed backend unhealthy before moving on. When every attempt
// fails, fallback-eligible operations receive a locally computed degraded
// result; everything else surfaces AllBackendsExhausted with the last
// backend error attached.
func (s *Service) Route(ctx context.Context, op models.OperationKind, payload models.GenerationPayload) (*models.RouteResult, error) {
	if !op.Valid() {
		return nil, services.ErrUnknownOperation
	}
	if err := s.validatePayload(op, payload); err != nil {
		observability.RouteRequestsTotal.WithLabelValues(string(op), "rejected").Inc()
		return nil, err
	}

	var (
		result  *models.RouteResult
		lastErr error
	)

	operation := func() error {
		backend := s.selector.Next()

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()

		start := time.Now()
		output, err := s.caller.Call(callCtx, backend, op, payload)
		elapsed := time.Since(start)

		if err != nil {
			if services.IsConfigurationError(err) {
				// Empty credential pool: fatal for this call, not a backend
				// fault, never retried.
				return backoff.Permanent(err)
			}

			lastErr = err
			s.selector.MarkUnhealthy(backend)
			observability.BackendFailuresTotal.WithLabelValues(backend).Inc()
			observability.UnhealthyBackends.Set(float64(s.selector.Status().UnhealthyCount))
			s.logger.Warn("backend attempt failed",
				zap.String("operation", string(op)),
				zap.String("backend", backend),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			return err
		}

		observability.BackendCallDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
		result = &models.RouteResult{
			Success:    true,
			Output:     output,
			Backend:    backend,
			DurationMs: elapsed.Milliseconds(),
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.RetryWait), uint64(s.cfg.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, bo); err != nil {
		if services.IsConfigurationError(err) {
			observability.RouteRequestsTotal.WithLabelValues(string(op), "config_error").Inc()
			return nil, err
		}
		return s.exhausted(op, payload, lastErr)
	}

	observability.RouteRequestsTotal.WithLabelValues(string(op), "success").Inc()
	return result, nil
}

// Status returns the selector snapshot for the status endpoint.
func (s *Service) Status() models.SelectorStatus {
	return s.selector.Status()
}

// exhausted handles the terminal state after every attempt failed.
func (s *Service) exhausted(op models.OperationKind, payload models.GenerationPayload, lastErr error) (*models.RouteResult, error) {
	if op.FallbackEligible() {
		if err := s.validatePrompt(payload.PrimaryPrompt()); err == nil {
			observability.RouteRequestsTotal.WithLabelValues(string(op), "fallback").Inc()
			observability.FallbackServedTotal.Inc()
			s.logger.Warn("all backends exhausted, serving degraded fallback",
				zap.String("operation", string(op)),
				zap.Int("attempts", s.cfg.MaxAttempts))
			return s.fallbackResult(payload.PrimaryPrompt()), nil
		}
	}

	observability.RouteRequestsTotal.WithLabelValues(string(op), "exhausted").Inc()
	domainErr := services.NewDomainError(services.ErrorTypeExhausted, "no backends available", lastErr).
		WithDetail("attempts", s.cfg.MaxAttempts)
	if lastErr != nil {
		domainErr = domainErr.WithDetail("last_error", lastErr.Error())
	}
	return nil, domainErr
}

// fallbackResult computes a degraded result purely from the prompt text. No
// backend is reached; the result is structurally identical to a real one
// except for the Degraded tag.
func (s *Service) fallbackResult(prompt string) *models.RouteResult {
	base := strings.TrimRight(s.cfg.FallbackBaseURL, "/")
	return &models.RouteResult{
		Success:  true,
		Output:   base + "/prompt/" + url.PathEscape(prompt),
		Backend:  "fallback",
		Degraded: true,
	}
}

// validatePayload applies the shape checks routing requires before any
// attempt. The HTTP layer performs equivalent validation earlier; routing
// re-applies it so the core never depends on the transport layer having run.
func (s *Service) validatePayload(op models.OperationKind, payload models.GenerationPayload) error {
	switch op {
	case models.OperationGenerate:
		return s.validatePrompt(payload.Prompt)
	case models.OperationCompare:
		if err := s.validatePrompt(payload.PromptA); err != nil {
			return err
		}
		return s.validatePrompt(payload.PromptB)
	}
	return services.ErrUnknownOperation
}

func (s *Service) validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return services.ErrEmptyPrompt
	}
	if len(prompt) > s.cfg.MaxPromptLength {
		return services.ErrPromptTooLong
	}
	return nil
}
