// Package ui is the root HTTP router: it lists stored selection runs,
// shows their reports and mounts the JSON API under /api.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"breakfit/domain/core"
	"breakfit/internal"
	"breakfit/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	reader    ports.ReaderPort
	api       http.Handler
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	// PageSize is the number of runs listed on the index page
	PageSize int
	// RequestLog enables chi's request logger
	RequestLog bool
}

// NewApp creates the UI application. api, when non-nil, is mounted at /api
// and receives the full request path.
func NewApp(config Config, reader ports.ReaderPort, api http.Handler, logger *internal.Logger) (*App, error) {
	if config.PageSize <= 0 {
		config.PageSize = 50
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	funcMap := template.FuncMap{
		"shortID": func(id core.RunID) string {
			s := id.String()
			if len(s) > 8 {
				return s[:8]
			}
			return s
		},
		"timefmt": func(ts core.Timestamp) string {
			return ts.Time().UTC().Format(time.RFC3339)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		reader:    reader,
		api:       api,
		templates: templates,
		logger:    logger.With("UI"),
	}
	app.setupMiddleware(config)
	app.setupRoutes(config)
	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware(config Config) {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	if config.RequestLog {
		a.router.Use(middleware.Logger)
	}
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes(config Config) {
	a.router.Get("/", a.handleIndex(config.PageSize))
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/healthz", a.handleHealth)
	if a.api != nil {
		a.router.Mount("/api", a.api)
	}
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Router exposes the chi router
func (a *App) Router() chi.Router {
	return a.router
}
