package llm

import (
	"context"
	"time"
)

// Provider is one chat-completion backend.
type Provider interface {
	Name() string
	// Models lists the model ids the backend accepts; the first is its default.
	Models() []string
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Gateway routes completions to a provider with bounded retry and fallback.
type Gateway interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Provider(name string) (Provider, error)
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Provider    string    `json:"provider,omitempty"` // gateway default when empty
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
}

// UsageRecord is the audit row written for every completion.
type UsageRecord struct {
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	LatencyMs    int64     `json:"latency_ms"`
	Endpoint     string    `json:"endpoint"`
	Timestamp    time.Time `json:"timestamp"`
}

// Usage converts a response into a usage record attributed to endpoint.
func (r *ChatResponse) Usage(endpoint string) UsageRecord {
	return UsageRecord{
		Provider:     r.Provider,
		Model:        r.Model,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		TotalTokens:  r.InputTokens + r.OutputTokens,
		CostUSD:      r.CostUSD,
		LatencyMs:    r.LatencyMs,
		Endpoint:     endpoint,
		Timestamp:    time.Now().UTC(),
	}
}

// completed fills in the accounting fields shared by every provider.
func completed(provider, model, content string, in, out int, start time.Time) *ChatResponse {
	return &ChatResponse{
		Provider:     provider,
		Model:        model,
		Content:      content,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      CalculateCost(model, in, out),
		LatencyMs:    time.Since(start).Milliseconds(),
	}
}
