package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a developer .env out of the test

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, int64(10*1024*1024), cfg.Intake.MaxBytes)
	require.Equal(t, 500, cfg.Conversation.MaxTokens)
	require.InDelta(t, 0.7, cfg.Conversation.Temperature, 1e-9)
	require.Equal(t, "openai", cfg.LLM.DefaultProvider)
	require.Equal(t, "alloy", cfg.TTS.Voice)
	require.Equal(t, 60*time.Second, cfg.Timeouts.Transcription)
	require.Equal(t, 10*time.Second, cfg.Timeouts.Intent)
	require.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	require.False(t, cfg.Intent.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("TTS_TIMEOUT", "7s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("INTENT_DETECTION", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", cfg.Addr())
	require.InDelta(t, 0.2, cfg.Conversation.Temperature, 1e-9)
	require.Equal(t, 7*time.Second, cfg.Timeouts.Synthesis)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	require.True(t, cfg.Intent.Enabled)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key, value, errContains string
	}{
		{"SERVER_PORT", "abc", "invalid SERVER_PORT"},
		{"AUDIO_MAX_BYTES", "ten", "invalid AUDIO_MAX_BYTES"},
		{"STT_TIMEOUT", "forever", "invalid STT_TIMEOUT"},
		{"INTENT_TIMEOUT", "soon", "invalid INTENT_TIMEOUT"},
		{"INTENT_DETECTION", "maybe", "invalid INTENT_DETECTION"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateRequiresProviderKeys(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.LLM.OpenAIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	cfg.TTS.Backend = "local"
	require.ErrorContains(t, cfg.Validate(), "TTS_LOCAL_PIPER_MODEL")
}
