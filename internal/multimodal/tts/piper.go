package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Piper runs the piper binary once per request. The voice is baked into
// the .onnx model, so Request.Voice and Request.Speed are ignored.
type Piper struct {
	bin   string
	model string
}

func NewPiper(bin, model string) *Piper {
	if bin == "" {
		bin = "piper"
	}
	return &Piper{bin: bin, model: model}
}

func (p *Piper) Name() string { return "local-piper" }

func (p *Piper) Synthesize(ctx context.Context, req Request) (*SynthesisResult, error) {
	if p.model == "" {
		return nil, errors.New("piper model path is required (set TTS_LOCAL_PIPER_MODEL)")
	}

	// piper writes a proper WAV header only when given an output file.
	out, err := os.CreateTemp("", "piper-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create piper output: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, "--model", p.model, "--output_file", outPath)
	cmd.Stdin = strings.NewReader(req.Text)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read piper output: %w", err)
	}
	return &SynthesisResult{Audio: audio, ContentType: "audio/wav"}, nil
}
