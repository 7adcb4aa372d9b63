package stt

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/gethelp/internal/config"
)

// Request describes one transcription of a stored audio file.
type Request struct {
	Path     string
	Language string
	Prompt   string
}

// Transcript is what the backend heard.
type Transcript struct {
	Text     string
	Language string
	Duration float64 // seconds, when the backend reports it
}

// Provider is a speech-to-text backend.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (*Transcript, error)
}

// NewProvider picks the backend named in cfg.
func NewProvider(cfg config.STTConfig) (Provider, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case "local":
		return NewLocal(cfg.LocalBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown STT backend %q", cfg.Backend)
	}
}
