// Package service contains the session-level logic of the viewer.
package service

import (
	"context"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-ogc/internal/mapview"
)

// ViewerConfig holds what every component of the service is built with.
type ViewerConfig struct {
	Fetcher     mapview.Fetcher
	Surface     mapview.SurfaceConfig
	Labels      *mapview.Labels
	Parallelism int
	MaxSessions int
	Logger      *slog.Logger
}

// ViewerService owns one mounted map component per viewer session. Evicted
// or closed sessions are unmounted.
type ViewerService struct {
	config ViewerConfig
	bus    *EventBus

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions *lru.Cache[string, *mapview.Component]
}

// NewViewerService creates a new viewer service.
func NewViewerService(cfg ViewerConfig, bus *EventBus) (*ViewerService, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("viewer service needs a fetcher")
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 128
	}
	if cfg.Labels == nil {
		cfg.Labels = mapview.DefaultLabels()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Surface == (mapview.SurfaceConfig{}) {
		cfg.Surface = mapview.DefaultSurfaceConfig()
	}

	sessions, err := lru.NewWithEvict(cfg.MaxSessions, func(session string, c *mapview.Component) {
		cfg.Logger.Debug("unmounting viewer session", slog.String("session", session))
		c.Unmount()
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ViewerService{
		config:   cfg,
		bus:      bus,
		ctx:      ctx,
		cancel:   cancel,
		sessions: sessions,
	}, nil
}

// Surface returns the surface configuration new sessions are mounted with.
func (s *ViewerService) Surface() mapview.SurfaceConfig {
	return s.config.Surface
}

// Bus returns the bus the components publish on.
func (s *ViewerService) Bus() *EventBus {
	return s.bus
}

// Open returns the component of a session, creating and mounting it first if
// needed.
func (s *ViewerService) Open(session string) (*mapview.Component, error) {
	if session == "" {
		return nil, errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return nil, errors.New("viewer service is shut down")
	}

	if c, ok := s.sessions.Get(session); ok {
		return c, nil
	}

	c := mapview.New(s.config.Fetcher,
		mapview.WithSurface(s.config.Surface),
		mapview.WithLabels(s.config.Labels),
		mapview.WithParallelism(s.config.Parallelism),
		mapview.WithLogger(s.config.Logger.With(slog.String("session", session))),
		mapview.WithObserver(func(e mapview.Event) {
			if s.bus != nil {
				s.bus.Publish(Event{Session: session, Event: e})
			}
		}),
	)
	c.Mount(s.ctx)
	s.sessions.Add(session, c)

	return c, nil
}

// Get returns the component of a session if it exists.
func (s *ViewerService) Get(session string) (*mapview.Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Get(session)
}

// Close unmounts and forgets a session.
func (s *ViewerService) Close(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(session)
}

// Len returns the number of live sessions.
func (s *ViewerService) Len() int {
	return s.sessions.Len()
}

// Shutdown unmounts every session and refuses new ones.
func (s *ViewerService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.sessions.Purge()
}
