package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikhilbhutani/gethelp/internal/llm"
)

// TaskEvent is written once per task dispatch, whether it succeeded or not.
type TaskEvent struct {
	TaskType   string         `json:"task_type"`
	Source     string         `json:"source"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	LatencyMs  int64          `json:"latency_ms"`
	Timestamp  time.Time      `json:"timestamp"`
}

// DB is the subset of *pgxpool.Pool the service needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Service struct {
	db DB
}

func NewService(db DB) *Service {
	return &Service{db: db}
}

func (s *Service) LogTask(ctx context.Context, ev TaskEvent) error {
	params, err := json.Marshal(ev.Parameters)
	if err != nil {
		return fmt.Errorf("marshal task parameters: %w", err)
	}

	var errText *string
	if ev.Error != "" {
		errText = &ev.Error
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO task_audit_logs (task_type, source, success, error, parameters, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.TaskType, ev.Source, ev.Success, errText, params, ev.LatencyMs, ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert task audit log: %w", err)
	}
	return nil
}

func (s *Service) LogLLMUsage(ctx context.Context, rec llm.UsageRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO llm_usage_logs (provider, model, input_tokens, output_tokens, total_tokens, cost_usd, latency_ms, endpoint, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens,
		rec.TotalTokens, rec.CostUSD, rec.LatencyMs, rec.Endpoint, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert LLM usage log: %w", err)
	}
	return nil
}
