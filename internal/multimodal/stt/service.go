package stt

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
)

// Service is the transcription adapter used by the pipeline. It makes exactly
// one provider call per request: consumed audio is never resubmitted.
type Service struct {
	provider Provider
	language string
	timeout  time.Duration
}

func NewService(p Provider, language string, timeout time.Duration) *Service {
	return &Service{provider: p, language: language, timeout: timeout}
}

func (s *Service) SpeechToText(ctx context.Context, path string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.provider.Transcribe(ctx, Request{Path: path, Language: s.language})
	if err != nil {
		return "", apperr.Upstream(apperr.StageTranscription, s.provider.Name(), err)
	}

	text := strings.TrimSpace(resp.Text)
	slog.Debug("transcribed audio",
		"provider", s.provider.Name(),
		"chars", len(text),
		"duration_s", resp.Duration,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
