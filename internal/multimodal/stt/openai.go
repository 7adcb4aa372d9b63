package stt

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultLocalURL = "http://localhost:8178"

// Whisper transcribes through the OpenAI audio API. A whisper.cpp server
// exposes the same endpoint, so the local backend is a Whisper pointed at it.
type Whisper struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAI talks to OpenAI (or a compatible gateway when baseURL is set).
func NewOpenAI(apiKey, baseURL, model string) *Whisper {
	return newWhisper("openai-whisper", apiKey, baseURL, model)
}

// NewLocal talks to a whisper.cpp server, e.g.
// ./server -m models/ggml-base.en.bin --port 8178
func NewLocal(baseURL string) *Whisper {
	if baseURL == "" {
		baseURL = defaultLocalURL
	}
	return newWhisper("local-whisper", "", baseURL, "")
}

func newWhisper(name, apiKey, baseURL, model string) *Whisper {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{
		name:   name,
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (w *Whisper) Name() string { return w.name }

// Transcribe uploads the file at req.Path and returns the recognized text.
func (w *Whisper) Transcribe(ctx context.Context, req Request) (*Transcript, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: req.Path,
		Language: req.Language,
		Prompt:   req.Prompt,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	return &Transcript{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
