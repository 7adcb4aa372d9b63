package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/gethelp/internal/audit"
	"github.com/nikhilbhutani/gethelp/internal/config"
	"github.com/nikhilbhutani/gethelp/internal/llm"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestEnqueueTaskAudit(t *testing.T) {
	t.Parallel()

	fe := &fakeEnqueuer{}
	c := &Client{client: fe}

	require.NoError(t, c.EnqueueTaskAudit(audit.TaskEvent{TaskType: "account_info", Success: true}))
	require.Len(t, fe.tasks, 1)
	require.Equal(t, TypeTaskAudit, fe.tasks[0].Type())

	var ev audit.TaskEvent
	require.NoError(t, json.Unmarshal(fe.tasks[0].Payload(), &ev))
	require.Equal(t, "account_info", ev.TaskType)
	require.True(t, ev.Success)
}

func TestRecorderSwallowsEnqueueErrors(t *testing.T) {
	t.Parallel()

	fe := &fakeEnqueuer{err: errors.New("redis: connection refused")}
	r := NewRecorder(&Client{client: fe})

	require.NotPanics(t, func() {
		r.RecordTask(context.Background(), audit.TaskEvent{TaskType: "x"})
		r.RecordUsage(context.Background(), llm.UsageRecord{Provider: "openai"})
	})
	require.Empty(t, fe.tasks)
}

func TestRecorderEnqueuesUsage(t *testing.T) {
	t.Parallel()

	fe := &fakeEnqueuer{}
	NewRecorder(&Client{client: fe}).RecordUsage(context.Background(), llm.UsageRecord{Provider: "anthropic", TotalTokens: 9})

	require.Len(t, fe.tasks, 1)
	require.Equal(t, TypeUsageAudit, fe.tasks[0].Type())
}

func TestNewSweepTask(t *testing.T) {
	t.Parallel()

	task, err := NewSweepTask(config.IntakeConfig{Dir: "temp-audio", SweepMaxAge: time.Hour})
	require.NoError(t, err)
	require.Equal(t, TypeAudioSweep, task.Type())

	var p AudioSweepPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, AudioSweepPayload{Dir: "temp-audio", MaxAge: time.Hour}, p)
}

func TestHandlersRegistryTracksTypes(t *testing.T) {
	t.Parallel()

	r := NewHandlersRegistry()
	noop := func(context.Context, *asynq.Task) error { return nil }
	r.Register(TypeTaskAudit, noop)
	r.Register(TypeAudioSweep, noop)

	require.Equal(t, []string{TypeTaskAudit, TypeAudioSweep}, r.Types())
	require.NotNil(t, r.Mux())
}
