// Package pipeline sequences intake, transcription, conversation, task
// dispatch and synthesis for a single request.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
	"github.com/nikhilbhutani/gethelp/internal/audit"
	"github.com/nikhilbhutani/gethelp/internal/conversation"
	"github.com/nikhilbhutani/gethelp/internal/intake"
	"github.com/nikhilbhutani/gethelp/internal/intent"
	"github.com/nikhilbhutani/gethelp/internal/multimodal/tts"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

type AudioStore interface {
	Store(ctx context.Context, r io.Reader, filename, contentType string, size int64) (*intake.Upload, error)
	Release(handle string) error
}

type Transcriber interface {
	SpeechToText(ctx context.Context, path string) (string, error)
}

type Responder interface {
	Reply(ctx context.Context, message string, history conversation.History) (string, error)
}

type Synthesizer interface {
	TextToSpeech(ctx context.Context, text string) (*tts.SynthesisResult, error)
}

type TaskExecutor interface {
	Lookup(id string) (tasks.Descriptor, bool)
	Execute(ctx context.Context, id string, params tasks.Params) (tasks.Result, error)
}

type IntentDetector interface {
	Detect(ctx context.Context, text string) (intent.Match, bool)
}

type AuditRecorder interface {
	RecordTask(ctx context.Context, ev audit.TaskEvent)
}

// Intent sources.
const (
	SourceCaller   = "caller"
	SourceDetected = "detected"
)

// TaskIntent asks the pipeline to run a task alongside the conversation.
type TaskIntent struct {
	TaskType   string
	Parameters tasks.Params
	Source     string
}

// TaskOutcome is the result of a task run as part of a voice or text request.
type TaskOutcome struct {
	TaskType string       `json:"taskType"`
	Source   string       `json:"source"`
	Result   tasks.Result `json:"result"`
}

type VoiceRequest struct {
	Audio        io.Reader
	Filename     string
	ContentType  string
	Size         int64
	History      conversation.History
	Intent       *TaskIntent
	IncludeAudio bool
}

type VoiceResponse struct {
	Transcription    string
	Reply            string
	AudioAvailable   bool
	Audio            []byte
	AudioContentType string
	Task             *TaskOutcome
}

type TextRequest struct {
	Message string
	History conversation.History
	Intent  *TaskIntent
}

type TextResponse struct {
	Message   string
	Reply     string
	Timestamp time.Time
	Task      *TaskOutcome
}

type TaskResponse struct {
	TaskType  string
	Result    tasks.Result
	Timestamp time.Time
}

type Deps struct {
	Store       AudioStore
	Transcriber Transcriber
	Responder   Responder
	Synthesizer Synthesizer
	Tasks       TaskExecutor

	// Optional.
	Intents IntentDetector
	Audit   AuditRecorder
}

// Orchestrator holds only immutable collaborators; every request runs on the
// caller's goroutine with its own state.
type Orchestrator struct {
	deps        Deps
	taskTimeout time.Duration
	now         func() time.Time
}

func New(deps Deps, taskTimeout time.Duration) *Orchestrator {
	return &Orchestrator{deps: deps, taskTimeout: taskTimeout, now: time.Now}
}

// ProcessVoice runs store, transcribe, reply, optional task and best-effort
// synthesis. The stored audio is released exactly once on every path out.
func (o *Orchestrator) ProcessVoice(ctx context.Context, req VoiceRequest) (*VoiceResponse, error) {
	if err := o.checkIntent(req.Intent); err != nil {
		return nil, err
	}
	if err := req.History.Validate(); err != nil {
		return nil, err
	}
	if req.Audio == nil {
		return nil, apperr.Validation("audio", "no audio file provided")
	}

	upload, err := o.deps.Store.Store(ctx, req.Audio, req.Filename, req.ContentType, req.Size)
	if err != nil {
		return nil, err
	}
	defer o.release(upload)

	text, err := o.deps.Transcriber.SpeechToText(ctx, upload.Path)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, apperr.Validation("audio", "no speech detected in audio")
	}

	reply, err := o.deps.Responder.Reply(ctx, text, req.History)
	if err != nil {
		return nil, err
	}

	resp := &VoiceResponse{
		Transcription: text,
		Reply:         reply,
		Task:          o.dispatch(ctx, req.Intent, text),
	}

	audio, err := o.deps.Synthesizer.TextToSpeech(ctx, reply)
	if err != nil {
		slog.Warn("speech synthesis failed, returning text only", "error", err)
		return resp, nil
	}
	resp.AudioAvailable = true
	if req.IncludeAudio {
		resp.Audio = audio.Audio
		resp.AudioContentType = audio.ContentType
	}
	return resp, nil
}

// ProcessText is the voice path without intake, transcription or synthesis.
func (o *Orchestrator) ProcessText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperr.Validation("message", "message is required")
	}
	if err := o.checkIntent(req.Intent); err != nil {
		return nil, err
	}

	reply, err := o.deps.Responder.Reply(ctx, req.Message, req.History)
	if err != nil {
		return nil, err
	}

	return &TextResponse{
		Message:   req.Message,
		Reply:     reply,
		Timestamp: o.now().UTC(),
		Task:      o.dispatch(ctx, req.Intent, req.Message),
	}, nil
}

// ExecuteTask runs a task directly, without the conversation engine.
func (o *Orchestrator) ExecuteTask(ctx context.Context, taskType string, params tasks.Params) (*TaskResponse, error) {
	if strings.TrimSpace(taskType) == "" {
		return nil, apperr.Validation("taskType", "task type is required")
	}
	res, err := o.runTask(ctx, TaskIntent{TaskType: taskType, Parameters: params, Source: SourceCaller})
	if err != nil {
		return nil, err
	}
	return &TaskResponse{TaskType: taskType, Result: res, Timestamp: o.now().UTC()}, nil
}

// Speak synthesizes text directly. Unlike the voice path, failure is an error.
func (o *Orchestrator) Speak(ctx context.Context, text string) (*tts.SynthesisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("text", "text is required")
	}
	return o.deps.Synthesizer.TextToSpeech(ctx, text)
}

func (o *Orchestrator) checkIntent(in *TaskIntent) error {
	if in == nil {
		return nil
	}
	if _, ok := o.deps.Tasks.Lookup(in.TaskType); !ok {
		return fmt.Errorf("%w: %s", tasks.ErrUnknownTaskType, in.TaskType)
	}
	return nil
}

// dispatch runs the caller's intent, or a detected one when the caller gave
// none. A nil outcome means no task ran.
func (o *Orchestrator) dispatch(ctx context.Context, in *TaskIntent, text string) *TaskOutcome {
	if in == nil && o.deps.Intents != nil {
		if m, ok := o.deps.Intents.Detect(ctx, text); ok {
			in = &TaskIntent{TaskType: m.TaskType, Parameters: m.Parameters, Source: SourceDetected}
		}
	}
	if in == nil {
		return nil
	}

	source := in.Source
	if source == "" {
		source = SourceCaller
	}
	res, err := o.runTask(ctx, TaskIntent{TaskType: in.TaskType, Parameters: in.Parameters, Source: source})
	if err != nil {
		// Only reachable for an id that vanished between check and run.
		res = tasks.Result{Success: false, Error: err.Error()}
	}
	return &TaskOutcome{TaskType: in.TaskType, Source: source, Result: res}
}

func (o *Orchestrator) runTask(ctx context.Context, in TaskIntent) (tasks.Result, error) {
	if o.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.taskTimeout)
		defer cancel()
	}

	start := o.now()
	res, err := o.deps.Tasks.Execute(ctx, in.TaskType, in.Parameters)
	if err != nil {
		return tasks.Result{}, err
	}

	if o.deps.Audit != nil {
		o.deps.Audit.RecordTask(context.WithoutCancel(ctx), audit.TaskEvent{
			TaskType:   in.TaskType,
			Source:     in.Source,
			Success:    res.Success,
			Error:      res.Error,
			Parameters: in.Parameters,
			LatencyMs:  o.now().Sub(start).Milliseconds(),
			Timestamp:  start.UTC(),
		})
	}
	return res, nil
}

func (o *Orchestrator) release(up *intake.Upload) {
	if err := o.deps.Store.Release(up.Handle); err != nil {
		slog.Error("failed to release audio", "handle", up.Handle, "error", err)
	}
}
