package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/gethelp/internal/api/handlers"
	"github.com/nikhilbhutani/gethelp/internal/api/middleware"
	"github.com/nikhilbhutani/gethelp/internal/config"
	"github.com/nikhilbhutani/gethelp/internal/pipeline"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

// Deps are the collaborators the HTTP layer routes to. Cache and the health
// checks are optional.
type Deps struct {
	Pipeline *pipeline.Orchestrator
	Tasks    *tasks.Registry
	Cache    handlers.ResultCache
	Checks   map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	rl   *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		rl:   middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateBurst),
	}
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	rt.rl.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/health", health.Liveness)

	voiceH := handlers.NewVoiceHandler(rt.deps.Pipeline, rt.cfg.Intake.MaxBytes)
	tasksH := handlers.NewTasksHandler(rt.deps.Pipeline, rt.deps.Tasks, rt.deps.Cache, 24*time.Hour)

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.rl.Limit)

		r.Get("/health", health.Readiness)

		r.Route("/voice", func(r chi.Router) {
			r.Post("/process", voiceH.Process)
			r.Post("/chat", voiceH.Chat)
			r.Post("/speak", voiceH.Speak)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/execute", tasksH.Execute)
			r.Get("/list", tasksH.List)
			r.Get("/account", tasksH.Account)
			r.Post("/appointment", tasksH.Appointment)
			r.Get("/order", tasksH.Order)
			r.Get("/order/{orderNumber}", tasksH.Order)
			r.Post("/payment", tasksH.Payment)
			r.Post("/support", tasksH.Support)
			r.Get("/product", tasksH.Product)
			r.Get("/product/{product}", tasksH.Product)
		})
	})

	return r
}
