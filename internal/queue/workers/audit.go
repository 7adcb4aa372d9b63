package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/gethelp/internal/audit"
	"github.com/nikhilbhutani/gethelp/internal/llm"
)

// AuditStore persists audit records.
type AuditStore interface {
	LogTask(ctx context.Context, ev audit.TaskEvent) error
	LogLLMUsage(ctx context.Context, rec llm.UsageRecord) error
}

type AuditWorker struct {
	store AuditStore
}

func NewAuditWorker(store AuditStore) *AuditWorker {
	return &AuditWorker{store: store}
}

func (w *AuditWorker) ProcessTaskAudit(ctx context.Context, t *asynq.Task) error {
	var ev audit.TaskEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if err := w.store.LogTask(ctx, ev); err != nil {
		return err
	}
	slog.Debug("stored task audit", "task", ev.TaskType, "success", ev.Success)
	return nil
}

func (w *AuditWorker) ProcessUsage(ctx context.Context, t *asynq.Task) error {
	var rec llm.UsageRecord
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return w.store.LogLLMUsage(ctx, rec)
}
