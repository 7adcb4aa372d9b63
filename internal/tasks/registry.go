package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnknownTaskType is returned by Execute for ids that were never registered.
var ErrUnknownTaskType = errors.New("unknown task type")

// Params are the caller-supplied inputs of a task. Values arrive from JSON, so
// they are strings, numbers, bools, nested maps or slices.
type Params map[string]any

// Descriptor is the public description of a task.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`

	// Capability is how the assistant advertises the task to the user.
	Capability string `json:"-"`
}

// Result is the outcome of one task execution.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type Handler interface {
	Execute(ctx context.Context, params Params) (Result, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, params Params) (Result, error)

func (f HandlerFunc) Execute(ctx context.Context, params Params) (Result, error) {
	return f(ctx, params)
}

// Entry binds a descriptor to its handler.
type Entry struct {
	Descriptor
	Handler Handler
}

// Registry is built once at startup and never mutated afterwards, so reads need
// no locking.
type Registry struct {
	order    []Descriptor
	handlers map[string]Handler
}

// NewRegistry panics on an empty or duplicate id or a nil handler; these are
// programming errors caught at startup.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{
		order:    make([]Descriptor, 0, len(entries)),
		handlers: make(map[string]Handler, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			panic("tasks: entry with empty id")
		}
		if e.Handler == nil {
			panic(fmt.Sprintf("tasks: nil handler for %q", e.ID))
		}
		if _, dup := r.handlers[e.ID]; dup {
			panic(fmt.Sprintf("tasks: duplicate id %q", e.ID))
		}
		r.order = append(r.order, e.Descriptor)
		r.handlers[e.ID] = e.Handler
	}
	return r
}

// List returns the descriptors in registration order. The slice is a copy.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Lookup(id string) (Descriptor, bool) {
	if _, ok := r.handlers[id]; !ok {
		return Descriptor{}, false
	}
	for _, d := range r.order {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Execute runs the handler registered under id. The only error it returns is
// ErrUnknownTaskType; handler failures and panics come back as a Result with
// Success false.
func (r *Registry) Execute(ctx context.Context, id string, params Params) (res Result, err error) {
	h, ok := r.handlers[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTaskType, id)
	}
	if params == nil {
		params = Params{}
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("task handler panicked", "task", id, "panic", p)
			res = Result{Success: false, Error: fmt.Sprintf("task %s failed: %v", id, p)}
			err = nil
		}
	}()

	res, herr := h.Execute(ctx, params)
	if herr != nil {
		slog.Warn("task handler failed", "task", id, "error", herr)
		return Result{Success: false, Error: herr.Error()}, nil
	}
	return res, nil
}
