package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"uigen/internal/http/handlers"
	"uigen/internal/middleware"
)

// Options configure the middleware stack around the handlers.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	// JWTSecret enables bearer authentication on every /v1 route except health and docs.
	JWTSecret string
	// RateLimitPerMin bounds generation requests per requester. Zero disables it.
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		// Preview documents are fetched by sandboxed iframes, which cannot send credentials.
		r.Get("/previews/{handle}", app.PreviewDocument)
		r.Get("/previews/{handle}/host", app.PreviewHost)

		r.Group(func(r chi.Router) {
			if opts.JWTSecret != "" {
				r.Use(middleware.AuthJWT(opts.JWTSecret))
			}

			r.Route("/generations", func(r chi.Router) {
				r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.CreateGeneration)
				r.Get("/{job_id}", app.GenerationStatus)
				r.Post("/{job_id}/retry", app.RetryGeneration)
			})

			r.Post("/validate", app.Validate)

			r.Route("/components", func(r chi.Router) {
				r.Get("/", app.ListComponents)
				r.Get("/{id}", app.GetComponent)
				r.Get("/{id}/bundle", app.ComponentBundle)
				r.Post("/{id}/preview", app.PreviewComponent)
			})

			r.Post("/previews", app.RenderPreview)
			r.Delete("/previews/{handle}", app.ReleasePreview)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", app.ListTemplates)
				r.Post("/{category}/render", app.RenderTemplate)
			})

			r.Get("/metrics", app.MetricsSummary)
		})
	})

	return r
}
