package queue

import (
	"context"
	"log/slog"

	"github.com/nikhilbhutani/gethelp/internal/audit"
	"github.com/nikhilbhutani/gethelp/internal/llm"
)

// Recorder hands audit and usage records to the worker. Enqueue failures are
// logged and dropped; they never fail the request that produced the record.
type Recorder struct {
	client *Client
}

func NewRecorder(c *Client) *Recorder {
	return &Recorder{client: c}
}

func (r *Recorder) RecordTask(_ context.Context, ev audit.TaskEvent) {
	if err := r.client.EnqueueTaskAudit(ev); err != nil {
		slog.Warn("dropping task audit record", "task", ev.TaskType, "error", err)
	}
}

func (r *Recorder) RecordUsage(_ context.Context, rec llm.UsageRecord) {
	if err := r.client.EnqueueUsage(rec); err != nil {
		slog.Warn("dropping usage record", "provider", rec.Provider, "error", err)
	}
}
