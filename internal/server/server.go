package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/brk3/fifty/internal/config"
	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/internal/queue"
	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/internal/tracker"
)

// Server exposes the challenge core over HTTP. It holds one Tracker per user
// so every mutation for a user funnels through a single sequential holder.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	queue    *queue.Queue
	verifier *oidc.IDTokenVerifier
	hub      *Hub

	mu       sync.Mutex
	trackers map[string]*tracker.Tracker
}

func New(ctx context.Context, cfg *config.Config, store storage.Store, q *queue.Queue) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		store:    store,
		queue:    q,
		hub:      NewHub(),
		trackers: make(map[string]*tracker.Tracker),
	}
	if cfg.AuthEnabled {
		provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
		if err != nil {
			return nil, fmt.Errorf("configure OIDC provider: %w", err)
		}
		s.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
		logger.Info("OIDC bearer auth enabled", "issuer", cfg.OIDCIssuer)
	}
	return s, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-User-Email"},
		AllowCredentials: true,
	})
	r.Use(corsMiddleware.Handler)

	r.Get("/healthz", s.getHealth)
	r.Get("/version", s.getVersionInfo)
	r.Handle("/metrics", promhttp.Handler())

	// /ws sits outside the timeout scope, the connection is long-lived.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/ws", s.handleWebSocket)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(s.authMiddleware)
		r.Get("/profile", s.getProfile)
		r.Get("/progress", s.getProgress)
		r.Get("/days/{date}", s.getDay)
		r.Put("/days/today/aux", s.putAux)
		r.Post("/habits/{habit_id}/toggle", s.toggleHabit)
		r.Get("/calendar", s.getCalendar)
		r.Post("/sync", s.syncPending)
		r.Get("/sync/status", s.getSyncStatus)
		r.Post("/reset", s.resetAccount)
	})
	return r
}

// trackerFor returns the user's tracker, creating and loading it on first use.
// Change events from the tracker are bridged onto the websocket hub.
func (s *Server) trackerFor(ctx context.Context, user identity) (*tracker.Tracker, error) {
	s.mu.Lock()
	t, ok := s.trackers[user.UID]
	if !ok {
		uid := user.UID
		t = tracker.New(uid, user.Email, s.store, s.queue, tracker.Options{
			OnChange: func(ev tracker.Event) { s.onTrackerEvent(uid, ev) },
		})
		s.trackers[uid] = t
	}
	s.mu.Unlock()

	if !ok {
		if err := t.Load(ctx); err != nil {
			s.mu.Lock()
			delete(s.trackers, user.UID)
			s.mu.Unlock()
			return nil, err
		}
	}
	return t, nil
}

func (s *Server) onTrackerEvent(uid string, ev tracker.Event) {
	if ev.Kind == tracker.EventStreak {
		daysCompletedTotal.Inc()
	}
	s.hub.Send(uid, ev)
}
