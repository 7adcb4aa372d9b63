package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/gethelp/internal/intake"
	"github.com/nikhilbhutani/gethelp/internal/queue"
)

// SweepWorker removes temp audio left behind by crashed requests.
type SweepWorker struct {
	now func() time.Time
}

func NewSweepWorker() *SweepWorker {
	return &SweepWorker{now: time.Now}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.AudioSweepPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if p.Dir == "" || p.MaxAge <= 0 {
		return fmt.Errorf("invalid sweep payload %+v: %w", p, asynq.SkipRetry)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	removed, err := intake.Sweep(p.Dir, p.MaxAge, w.now())
	if err != nil {
		return fmt.Errorf("sweep %s: %w", p.Dir, err)
	}
	if removed > 0 {
		slog.Info("swept stale audio", "dir", p.Dir, "removed", removed)
	}
	return nil
}
