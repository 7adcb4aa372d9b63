package queue

import "time"

const (
	TypeTaskAudit  = "audit:task"
	TypeUsageAudit = "audit:usage"
	TypeAudioSweep = "audio:sweep"
)

// Queue names, highest priority first.
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// AudioSweepPayload tells the sweep worker which directory to clean.
type AudioSweepPayload struct {
	Dir    string        `json:"dir"`
	MaxAge time.Duration `json:"max_age"`
}
