package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/gethelp/internal/audit"
	"github.com/nikhilbhutani/gethelp/internal/config"
	"github.com/nikhilbhutani/gethelp/internal/llm"
)

type enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type Client struct {
	client enqueuer
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueTaskAudit(ev audit.TaskEvent) error {
	return c.enqueue(TypeTaskAudit, ev, asynq.Queue(QueueDefault), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
}

func (c *Client) EnqueueUsage(rec llm.UsageRecord) error {
	return c.enqueue(TypeUsageAudit, rec, asynq.Queue(QueueLow), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
}

func (c *Client) enqueue(taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if _, err := c.client.Enqueue(asynq.NewTask(taskType, data), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// NewSweepTask builds the periodic temp-audio cleanup job.
func NewSweepTask(cfg config.IntakeConfig) (*asynq.Task, error) {
	data, err := json.Marshal(AudioSweepPayload{Dir: cfg.Dir, MaxAge: cfg.SweepMaxAge})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeAudioSweep, data, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}
