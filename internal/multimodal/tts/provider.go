package tts

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/gethelp/internal/config"
)

// Request is one utterance to render.
type Request struct {
	Text  string
	Voice string  // backend default when empty
	Speed float64 // backend default when zero
}

// SynthesisResult is rendered speech ready to send to a client.
type SynthesisResult struct {
	Audio       []byte
	ContentType string
}

// Extension maps the content type to a file extension for downloads.
func (r *SynthesisResult) Extension() string {
	switch r.ContentType {
	case "audio/wav", "audio/x-wav":
		return "wav"
	default:
		return "mp3"
	}
}

// Provider is a text-to-speech backend.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (*SynthesisResult, error)
}

// NewProvider picks the backend named in cfg.
func NewProvider(cfg config.TTSConfig) (Provider, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAI(OpenAIOptions{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Voice:   cfg.Voice,
		}), nil
	case "local":
		return NewPiper(cfg.LocalBinPath, cfg.LocalModel), nil
	default:
		return nil, fmt.Errorf("unknown TTS backend %q", cfg.Backend)
	}
}
