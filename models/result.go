package models

import "time"

// OperationKind identifies the logical operation a request performs.
// Routing treats all kinds identically except for fallback eligibility.
type OperationKind string

const (
	// OperationGenerate produces a generation result for a single prompt.
	// It is the only operation with a local fallback path.
	OperationGenerate OperationKind = "generate"

	// OperationCompare produces a comparison across two prompts.
	OperationCompare OperationKind = "compare"
)

// FallbackEligible reports whether the operation may be served by the
// local degraded path when every backend attempt has failed.
func (k OperationKind) FallbackEligible() bool {
	return k == OperationGenerate
}

// Valid reports whether the kind is one the gateway routes.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationGenerate, OperationCompare:
		return true
	}
	return false
}

// GenerationPayload is the snapshot of an inbound request body. The HTTP
// layer decodes the body exactly once into this struct; every retry attempt
// and the fallback path receive this copy, never the request stream.
type GenerationPayload struct {
	Prompt  string `json:"prompt,omitempty"`
	PromptA string `json:"prompt_a,omitempty"`
	PromptB string `json:"prompt_b,omitempty"`
}

// PrimaryPrompt returns the prompt the fallback path derives its result from.
func (p GenerationPayload) PrimaryPrompt() string {
	return p.Prompt
}

// RouteResult is the single result shape shared by the real-backend path and
// the fallback path. Callers cannot distinguish the two structurally except
// via Degraded.
type RouteResult struct {
	Success    bool   `json:"success"`
	Output     string `json:"output"`
	Backend    string `json:"backend,omitempty"`
	Degraded   bool   `json:"degraded"`
	DurationMs int64  `json:"duration_ms"`
}

// SelectorStatus is a read-only snapshot of the backend selector state,
// served by the status endpoint. Reading it never mutates routing state.
type SelectorStatus struct {
	PoolSize       int       `json:"pool_size"`
	UnhealthyCount int       `json:"unhealthy_count"`
	HealthyCount   int       `json:"healthy_count"`
	CursorPosition int       `json:"cursor_position"`
	GeneratedAt    time.Time `json:"generated_at"`
}
