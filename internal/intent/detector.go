package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/gethelp/internal/llm"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

// None is the label the classifier uses when no task applies.
const None = "none"

// Match is a classified task intent.
type Match struct {
	TaskType   string         `json:"task"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// UsageRecorder receives token and cost accounting for each classification.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, rec llm.UsageRecord)
}

type Options struct {
	Model         string // default gpt-4o-mini
	MinConfidence float64
	Timeout       time.Duration // per classification call; zero means none
	Usage         UsageRecorder
}

// Detector asks a small model which registered task, if any, a message is
// requesting.
type Detector struct {
	gateway llm.Gateway
	opts    Options
	tasks   []tasks.Descriptor
	known   map[string]bool
}

func NewDetector(gw llm.Gateway, descriptors []tasks.Descriptor, opts Options) *Detector {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	known := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		known[d.ID] = true
	}
	return &Detector{
		gateway: gw,
		opts:    opts,
		tasks:   descriptors,
		known:   known,
	}
}

// Detect never fails the request: a classifier error, an unparseable answer,
// an unknown task or low confidence all mean no intent.
func (d *Detector) Detect(ctx context.Context, text string) (Match, bool) {
	var list strings.Builder
	for _, t := range d.tasks {
		fmt.Fprintf(&list, "- %s: %s\n", t.ID, t.Description)
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	resp, err := d.gateway.Chat(ctx, llm.ChatRequest{
		Model: d.opts.Model,
		Messages: []llm.Message{
			{
				Role: llm.RoleSystem,
				Content: fmt.Sprintf(`Decide whether the customer's message asks for one of these tasks:
%s- %s: none of the above
Reply with ONLY a JSON object: {"task": "task_id", "confidence": 0.0-1.0, "parameters": {}}
Put any values the customer gave (order number, date, amount, product, issue) in parameters.`, list.String(), None),
			},
			{Role: llm.RoleUser, Content: text},
		},
		Temperature: 0,
		MaxTokens:   120,
	})
	if err != nil {
		slog.Warn("intent detection failed", "error", err)
		return Match{}, false
	}
	if d.opts.Usage != nil {
		d.opts.Usage.RecordUsage(context.WithoutCancel(ctx), resp.Usage("intent"))
	}

	m, err := parse(resp.Content)
	if err != nil {
		slog.Debug("unparseable intent", "content", resp.Content, "error", err)
		return Match{}, false
	}
	if m.TaskType == None || !d.known[m.TaskType] || m.Confidence < d.opts.MinConfidence {
		return Match{}, false
	}
	return m, true
}

func parse(content string) (Match, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var m Match
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return Match{}, err
	}
	return m, nil
}
