package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
	"github.com/nikhilbhutani/gethelp/internal/pipeline"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

type TaskRunner interface {
	ExecuteTask(ctx context.Context, taskType string, params tasks.Params) (*pipeline.TaskResponse, error)
}

type TaskCatalog interface {
	List() []tasks.Descriptor
}

// ResultCache remembers task responses by idempotency key.
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type TasksHandler struct {
	runner  TaskRunner
	catalog TaskCatalog
	cache   ResultCache
	ttl     time.Duration
}

// NewTasksHandler accepts a nil cache, which disables idempotency keys.
func NewTasksHandler(runner TaskRunner, catalog TaskCatalog, cache ResultCache, ttl time.Duration) *TasksHandler {
	return &TasksHandler{runner: runner, catalog: catalog, cache: cache, ttl: ttl}
}

type executeRequest struct {
	TaskType   string       `json:"taskType"`
	Parameters tasks.Params `json:"parameters"`
}

type executeResponse struct {
	TaskType  string       `json:"taskType"`
	Result    tasks.Result `json:"result"`
	Timestamp time.Time    `json:"timestamp"`
}

func (h *TasksHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "Task execution failed", err)
		return
	}
	if strings.TrimSpace(req.TaskType) == "" {
		writeError(w, r, "Task execution failed", apperr.Validation("taskType", "Task type is required"))
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.cache != nil {
		var cached executeResponse
		found, err := h.cache.Get(r.Context(), idempotencyKey(req.TaskType, key), &cached)
		if err != nil {
			// A cache outage must not block task execution.
			found = false
		}
		if found && cached.TaskType == req.TaskType {
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp, err := h.runner.ExecuteTask(r.Context(), req.TaskType, req.Parameters)
	if err != nil {
		writeError(w, r, "Task execution failed", err)
		return
	}

	out := executeResponse{TaskType: resp.TaskType, Result: resp.Result, Timestamp: resp.Timestamp}
	if key != "" && h.cache != nil && resp.Result.Success {
		_ = h.cache.Set(r.Context(), idempotencyKey(req.TaskType, key), out, h.ttl)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"availableTasks": h.catalog.List()})
}

func (h *TasksHandler) Account(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, tasks.AccountInfo, "Failed to retrieve account information", queryParams(r))
}

func (h *TasksHandler) Appointment(w http.ResponseWriter, r *http.Request) {
	h.runBody(w, r, tasks.ScheduleAppointment, "Failed to schedule appointment")
}

func (h *TasksHandler) Order(w http.ResponseWriter, r *http.Request) {
	params := queryParams(r)
	if n := chi.URLParam(r, "orderNumber"); n != "" {
		params["orderNumber"] = n
	}
	h.run(w, r, tasks.OrderTracking, "Failed to track order", params)
}

func (h *TasksHandler) Payment(w http.ResponseWriter, r *http.Request) {
	h.runBody(w, r, tasks.BillPayment, "Failed to process payment")
}

func (h *TasksHandler) Support(w http.ResponseWriter, r *http.Request) {
	h.runBody(w, r, tasks.TechnicalSupport, "Failed to create support ticket")
}

func (h *TasksHandler) Product(w http.ResponseWriter, r *http.Request) {
	params := queryParams(r)
	if p := chi.URLParam(r, "product"); p != "" {
		params["product"] = p
	}
	h.run(w, r, tasks.ProductInfo, "Failed to retrieve product information", params)
}

func (h *TasksHandler) runBody(w http.ResponseWriter, r *http.Request, id, failure string) {
	params := tasks.Params{}
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, failure, err)
		return
	}
	h.run(w, r, id, failure, params)
}

// run answers with the bare task result, as the per-task endpoints always have.
func (h *TasksHandler) run(w http.ResponseWriter, r *http.Request, id, failure string, params tasks.Params) {
	resp, err := h.runner.ExecuteTask(r.Context(), id, params)
	if err != nil {
		writeError(w, r, failure, err)
		return
	}
	if !resp.Result.Success {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: failure, Message: resp.Result.Error})
		return
	}
	writeJSON(w, http.StatusOK, resp.Result)
}

func queryParams(r *http.Request) tasks.Params {
	params := tasks.Params{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

// idempotencyKey scopes a client key to one task type, so reusing a key for a
// different task never replaces the entry of the first.
func idempotencyKey(taskType, key string) string {
	return "task:" + taskType + ":" + key
}
