package conversation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
	"github.com/nikhilbhutani/gethelp/internal/llm"
)

// UsageRecorder receives token and cost accounting for each completion.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, rec llm.UsageRecord)
}

type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Usage       UsageRecorder
}

// Engine turns a user message plus caller-held history into an assistant
// reply. It keeps no per-conversation state.
type Engine struct {
	gateway llm.Gateway
	system  string
	opts    Options
}

func New(gw llm.Gateway, systemPrompt string, opts Options) *Engine {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	return &Engine{gateway: gw, system: systemPrompt, opts: opts}
}

func (e *Engine) SystemPrompt() string { return e.system }

// BuildMessages returns [system, history..., user].
func (e *Engine) BuildMessages(message string, history History) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: e.system})
	msgs = append(msgs, history.messages()...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
	return msgs
}

func (e *Engine) Reply(ctx context.Context, message string, history History) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperr.Validation("message", "message is required")
	}
	if err := history.Validate(); err != nil {
		return "", err
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	resp, err := e.gateway.Chat(ctx, llm.ChatRequest{
		Provider:    e.opts.Provider,
		Model:       e.opts.Model,
		Messages:    e.BuildMessages(message, history),
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		provider := e.opts.Provider
		if provider == "" {
			provider = "llm"
		}
		return "", apperr.Upstream(apperr.StageCompletion, provider, err)
	}

	slog.Debug("conversation reply",
		"provider", resp.Provider,
		"model", resp.Model,
		"history_turns", len(history),
		"tokens_in", resp.InputTokens,
		"tokens_out", resp.OutputTokens,
		"latency_ms", resp.LatencyMs,
	)

	if e.opts.Usage != nil {
		e.opts.Usage.RecordUsage(context.WithoutCancel(ctx), resp.Usage("conversation"))
	}
	return resp.Content, nil
}
