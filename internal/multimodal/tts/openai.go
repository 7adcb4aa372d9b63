package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string // default tts-1
	Voice   string // default alloy
}

// OpenAI renders speech as MP3 through the OpenAI speech endpoint.
type OpenAI struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

func NewOpenAI(opts OpenAIOptions) *OpenAI {
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}
	o := &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.TTSModel1,
		voice:  openai.VoiceAlloy,
	}
	if opts.Model != "" {
		o.model = openai.SpeechModel(opts.Model)
	}
	if opts.Voice != "" {
		o.voice = openai.SpeechVoice(opts.Voice)
	}
	return o
}

func (o *OpenAI) Name() string { return "openai-tts" }

func (o *OpenAI) Synthesize(ctx context.Context, req Request) (*SynthesisResult, error) {
	voice := o.voice
	if req.Voice != "" {
		voice = openai.SpeechVoice(req.Voice)
	}

	body, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          req.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer body.Close()

	audio, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read speech body: %w", err)
	}
	return &SynthesisResult{Audio: audio, ContentType: "audio/mpeg"}, nil
}
