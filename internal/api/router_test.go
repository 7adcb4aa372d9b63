package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/gethelp/internal/config"
	"github.com/nikhilbhutani/gethelp/internal/conversation"
	"github.com/nikhilbhutani/gethelp/internal/intake"
	"github.com/nikhilbhutani/gethelp/internal/multimodal/tts"
	"github.com/nikhilbhutani/gethelp/internal/pipeline"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

type echoTranscriber struct{}

func (echoTranscriber) SpeechToText(context.Context, string) (string, error) { return "hello", nil }

type cannedResponder struct{}

func (cannedResponder) Reply(context.Context, string, conversation.History) (string, error) {
	return "Test AI response", nil
}

type silentSynth struct{}

func (silentSynth) TextToSpeech(_ context.Context, text string) (*tts.SynthesisResult, error) {
	return &tts.SynthesisResult{Audio: []byte(text), ContentType: "audio/mpeg"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := intake.NewDiskStore(t.TempDir(), 1024)
	require.NoError(t, err)
	registry := tasks.NewRegistry(tasks.Builtin()...)

	cfg := &config.Config{
		Server: config.ServerConfig{CORSOrigins: []string{"*"}, RateLimitRPS: 1000, RateBurst: 1000},
		Intake: config.IntakeConfig{MaxBytes: 1024},
	}
	rt := NewRouter(cfg, Deps{
		Pipeline: pipeline.New(pipeline.Deps{
			Store:       store,
			Transcriber: echoTranscriber{},
			Responder:   cannedResponder{},
			Synthesizer: silentSynth{},
			Tasks:       registry,
		}, time.Second),
		Tasks: registry,
	})
	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(func() {
		srv.Close()
		rt.Close()
	})
	return srv
}

func getJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := getJSON(t, resp)
	require.Equal(t, "OK", out["status"])
	require.Contains(t, out, "timestamp")

	resp, err = http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = getJSON(t, resp)
	require.Contains(t, out, "status")
	require.Contains(t, out, "timestamp")
}

func TestTaskRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/tasks/list")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, getJSON(t, resp)["availableTasks"], 6)

	resp, err = http.Post(srv.URL+"/api/tasks/execute", "application/json", strings.NewReader(`{"taskType":"account_info","parameters":{}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := getJSON(t, resp)
	require.Equal(t, "account_info", out["taskType"])
	result := out["result"].(map[string]any)
	require.Equal(t, true, result["success"])
	require.Equal(t, "****1234", result["data"].(map[string]any)["accountNumber"])

	resp, err = http.Post(srv.URL+"/api/tasks/execute", "application/json", strings.NewReader(`{"taskType":"nonexistent_task"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/tasks/order/ORD-9")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ORD-9", getJSON(t, resp)["data"].(map[string]any)["orderNumber"])

	resp, err = http.Get(srv.URL + "/api/tasks/product")
	require.NoError(t, err)
	require.Equal(t, "Premium Service Plan", getJSON(t, resp)["data"].(map[string]any)["productName"])
}

func TestChatRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/voice/chat", "application/json", strings.NewReader(`{"message":"hi","history":[]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := getJSON(t, resp)
	require.Equal(t, "Test AI response", out["response"])
	require.Equal(t, "hi", out["message"])

	resp, err = http.Post(srv.URL+"/api/voice/chat", "application/json", strings.NewReader(`{"history":[]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
