package tts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
)

// Service is the synthesis adapter used by the pipeline. One attempt per call.
type Service struct {
	provider Provider
	timeout  time.Duration
}

func NewService(p Provider, timeout time.Duration) *Service {
	return &Service{provider: p, timeout: timeout}
}

func (s *Service) TextToSpeech(ctx context.Context, text string) (*SynthesisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("text", "text is required")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.provider.Synthesize(ctx, Request{Text: text})
	if err != nil {
		return nil, apperr.Upstream(apperr.StageSynthesis, s.provider.Name(), err)
	}
	if len(res.Audio) == 0 {
		return nil, apperr.Upstream(apperr.StageSynthesis, s.provider.Name(), errors.New("provider returned no audio"))
	}

	slog.Debug("synthesized speech",
		"provider", s.provider.Name(),
		"bytes", len(res.Audio),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
