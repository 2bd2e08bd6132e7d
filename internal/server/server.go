package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joeblew999/plat-ogc/internal/api"
	"github.com/joeblew999/plat-ogc/internal/api/viewer"
	"github.com/joeblew999/plat-ogc/internal/mapview"
	"github.com/joeblew999/plat-ogc/internal/service"
	"github.com/joeblew999/plat-ogc/internal/templates"
	"github.com/joeblew999/plat-ogc/pkg/ogcclient"
)

// Config holds the server configuration.
type Config struct {
	Host        string
	Port        string
	APIURL      string // OGC API root, e.g. http://localhost:5000
	Parallelism int    // concurrent item requests per session
	MaxSessions int
	ItemLimit   int
	Surface     mapview.SurfaceConfig
	Logger      *slog.Logger

	// Fetcher replaces the OGC API client built from APIURL.
	Fetcher mapview.Fetcher
}

// Server is the viewer HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	services *api.Services
	renderer *templates.Renderer
	logger   *slog.Logger
}

// New creates a new viewer server.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		baseURL, err := url.Parse(cfg.APIURL)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse api url '%s'", cfg.APIURL)
		}
		fetcher = ogcclient.New(
			ogcclient.WithBaseURL(baseURL),
			ogcclient.WithItemLimit(cfg.ItemLimit),
		)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-ogc API", "1.0.0")
	humaConfig.Info.Description = "Map viewer for OGC API Features collections: layers, visibility and popup labels."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	viewerService, err := service.NewViewerService(service.ViewerConfig{
		Fetcher:     fetcher,
		Surface:     cfg.Surface,
		Parallelism: cfg.Parallelism,
		MaxSessions: cfg.MaxSessions,
		Logger:      logger,
	}, service.NewEventBus())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	renderer, err := templates.Default()
	if err != nil {
		return nil, errors.Wrap(err, "could not load templates")
	}

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		services: &api.Services{
			Viewer: viewerService,
			APIURL: cfg.APIURL,
		},
		renderer: renderer,
		logger:   logger,
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close unmounts every viewer session.
func (s *Server) Close() error {
	s.services.Viewer.Shutdown()
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)

	// Register viewer SSE routes using Huma + Datastar SDK
	viewer.NewHandler(s.services.Viewer, s.renderer).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/metrics", promhttp.Handler())

	// Page routes
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-ogc",
		"status":  "running",
		"viewer":  "/viewer",
	})
}

// ViewerPage is the data of the viewer page template.
type ViewerPage struct {
	Surface mapview.SurfaceConfig
	State   mapview.State
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := ""
	if cookie, err := r.Cookie(api.SessionCookie); err == nil {
		session = cookie.Value
	}
	if _, err := uuid.Parse(session); err != nil {
		session = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     api.SessionCookie,
			Value:    session,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	c, err := s.services.Viewer.Open(session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	page := ViewerPage{Surface: s.services.Viewer.Surface()}
	if state, err := c.Snapshot(); err == nil {
		page.State = state
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Execute(w, "viewer", page); err != nil {
		s.logger.ErrorContext(r.Context(), "could not render viewer page", slog.Any("error", errors.WithStack(err)))
	}
}
