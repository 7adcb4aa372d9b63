package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
	"github.com/nikhilbhutani/gethelp/internal/conversation"
	"github.com/nikhilbhutani/gethelp/internal/multimodal/tts"
	"github.com/nikhilbhutani/gethelp/internal/pipeline"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to disk.
const multipartMemory = 1 << 20

type VoicePipeline interface {
	ProcessVoice(ctx context.Context, req pipeline.VoiceRequest) (*pipeline.VoiceResponse, error)
	ProcessText(ctx context.Context, req pipeline.TextRequest) (*pipeline.TextResponse, error)
	Speak(ctx context.Context, text string) (*tts.SynthesisResult, error)
}

type VoiceHandler struct {
	pipeline VoicePipeline
	maxBytes int64
}

func NewVoiceHandler(p VoicePipeline, maxAudioBytes int64) *VoiceHandler {
	return &VoiceHandler{pipeline: p, maxBytes: maxAudioBytes}
}

type voiceResponse struct {
	Transcription    string                `json:"transcription"`
	Response         string                `json:"response"`
	AudioResponse    bool                  `json:"audioResponse"`
	Audio            []byte                `json:"audio,omitempty"`
	AudioContentType string                `json:"audioContentType,omitempty"`
	Task             *pipeline.TaskOutcome `json:"task,omitempty"`
}

// Process handles a multipart upload with an "audio" file part.
func (h *VoiceHandler) Process(w http.ResponseWriter, r *http.Request) {
	// Room for the audio plus the small form fields around it.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, "Voice processing failed", apperr.Validation("audio", "file exceeds %d bytes", h.maxBytes))
			return
		}
		writeError(w, r, "Voice processing failed", apperr.Validation("audio", "no audio file provided"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, r, "Voice processing failed", apperr.Validation("audio", "no audio file provided"))
		return
	}
	defer file.Close()

	history, err := conversation.ParseHistory([]byte(r.FormValue("history")))
	if err != nil {
		writeError(w, r, "Voice processing failed", err)
		return
	}
	intent, err := formIntent(r.FormValue("taskType"), r.FormValue("parameters"))
	if err != nil {
		writeError(w, r, "Voice processing failed", err)
		return
	}
	includeAudio, _ := strconv.ParseBool(r.FormValue("includeAudio"))

	resp, err := h.pipeline.ProcessVoice(r.Context(), pipeline.VoiceRequest{
		Audio:        file,
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		History:      history,
		Intent:       intent,
		IncludeAudio: includeAudio,
	})
	if err != nil {
		writeError(w, r, "Voice processing failed", err)
		return
	}

	writeJSON(w, http.StatusOK, voiceResponse{
		Transcription:    resp.Transcription,
		Response:         resp.Reply,
		AudioResponse:    resp.AudioAvailable,
		Audio:            resp.Audio,
		AudioContentType: resp.AudioContentType,
		Task:             resp.Task,
	})
}

type chatRequest struct {
	Message    string          `json:"message"`
	History    json.RawMessage `json:"history"`
	TaskType   string          `json:"taskType"`
	Parameters tasks.Params    `json:"parameters"`
}

type chatResponse struct {
	Message   string                `json:"message"`
	Response  string                `json:"response"`
	Timestamp time.Time             `json:"timestamp"`
	Task      *pipeline.TaskOutcome `json:"task,omitempty"`
}

func (h *VoiceHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "Chat processing failed", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, "Chat processing failed", apperr.Validation("message", "Message is required"))
		return
	}

	history, err := conversation.ParseHistory(req.History)
	if err != nil {
		writeError(w, r, "Chat processing failed", err)
		return
	}

	var intent *pipeline.TaskIntent
	if req.TaskType != "" {
		intent = &pipeline.TaskIntent{TaskType: req.TaskType, Parameters: req.Parameters, Source: pipeline.SourceCaller}
	}

	resp, err := h.pipeline.ProcessText(r.Context(), pipeline.TextRequest{
		Message: req.Message,
		History: history,
		Intent:  intent,
	})
	if err != nil {
		writeError(w, r, "Chat processing failed", err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Message:   resp.Message,
		Response:  resp.Reply,
		Timestamp: resp.Timestamp,
		Task:      resp.Task,
	})
}

// Speak returns synthesized audio as an attachment.
func (h *VoiceHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "Text-to-speech failed", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, "Text-to-speech failed", apperr.Validation("text", "Text is required"))
		return
	}

	res, err := h.pipeline.Speak(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, "Text-to-speech failed", err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="speech.%s"`, res.Extension()))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Audio)
}

func formIntent(taskType, rawParams string) (*pipeline.TaskIntent, error) {
	if strings.TrimSpace(taskType) == "" {
		return nil, nil
	}
	var params tasks.Params
	if strings.TrimSpace(rawParams) != "" {
		if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
			return nil, apperr.Validation("parameters", "parameters must be a JSON object: %v", err)
		}
	}
	return &pipeline.TaskIntent{TaskType: taskType, Parameters: params, Source: pipeline.SourceCaller}, nil
}
