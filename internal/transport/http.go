// Package transport exposes the core operations over a small JSON HTTP API
// for the UI layer and user-initiated "sync now" actions. Errors cross this
// boundary as status codes, never panics.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwestre/cadence/internal/domain/activity"
	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/sync"
)

// Services bundles what the handlers call into.
type Services struct {
	Habits     *habit.Service
	Activities *activity.Service
	Sync       *sync.Registry
}

// Server wires HTTP handlers.
type Server struct {
	svc Services
}

// NewServer creates an HTTP router with auth middleware.
func NewServer(svc Services, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{svc: svc}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/v1/habits", srv.handleCreateHabit)
		r.Patch("/v1/habits/{id}", srv.handleUpdateHabit)
		r.Delete("/v1/habits/{id}", srv.handleDeleteHabit)
		r.Post("/v1/habits/{id}/instantiate", srv.handleInstantiateHabit)
		r.Post("/v1/activities/ensure", srv.handleEnsureActivities)
		r.Post("/v1/activities/refresh", srv.handleRefreshActivities)
		r.Get("/v1/activities", srv.handleListActivities)
		r.Post("/v1/activities/{id}/progress", srv.handleRegisterProgress)
		r.Post("/v1/sync/{collection}", srv.handleSync)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type dateRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleEnsureActivities(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	var req dateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := s.svc.Activities.EnsureForDate(r.Context(), uid, date); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRefreshActivities(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	var req dateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := s.svc.Activities.RefreshForDate(r.Context(), uid, date, time.Now()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	acts, err := s.svc.Activities.ListForDate(r.Context(), uid, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if acts == nil {
		acts = []*activity.Activity{}
	}
	writeJSON(w, http.StatusOK, acts)
}

type progressRequest struct {
	Qty    float64 `json:"qty"`
	Status string  `json:"status"`
	At     string  `json:"at"`
}

func (s *Server) handleRegisterProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	at := time.Now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			http.Error(w, "invalid timestamp", http.StatusBadRequest)
			return
		}
		at = parsed
	}
	a, err := s.svc.Activities.RegisterProgress(r.Context(), uid, id, req.Qty, activity.Status(req.Status), at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleSync is the one place sync failures become user-visible: the
// background jobs stay silent, an explicit "sync now" reports its error.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	collection := chi.URLParam(r, "collection")

	var err error
	if collection == "all" {
		err = s.svc.Sync.RunAll(r.Context(), uid)
	} else {
		err = s.svc.Sync.Run(r.Context(), collection, uid)
	}
	if err != nil {
		if errors.Is(err, sync.ErrUnknownCollection) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type habitCreateRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Icon        string            `json:"icon"`
	Session     habit.Session     `json:"session"`
	Repeat      habit.Repeat      `json:"repeat"`
	Period      *habit.Period     `json:"period,omitempty"`
	Notif       habit.NotifConfig `json:"notif"`
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	var req habitCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h, err := s.svc.Habits.Create(r.Context(), uid, habit.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Icon:        req.Icon,
		Session:     req.Session,
		Repeat:      req.Repeat,
		Period:      req.Period,
		Notif:       req.Notif,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

type habitUpdateRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Icon        *string            `json:"icon,omitempty"`
	Session     *habit.Session     `json:"session,omitempty"`
	Repeat      *habit.Repeat      `json:"repeat,omitempty"`
	Period      *habit.Period      `json:"period,omitempty"`
	Notif       *habit.NotifConfig `json:"notif,omitempty"`
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	var req habitUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h, err := s.svc.Habits.Update(r.Context(), uid, habit.UpdateRequest{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Icon:        req.Icon,
		Session:     req.Session,
		Repeat:      req.Repeat,
		Period:      req.Period,
		Notif:       req.Notif,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	if err := s.svc.Habits.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInstantiateHabit(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	h, err := s.svc.Habits.Instantiate(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, activity.ErrActivityNotFound), errors.Is(err, habit.ErrHabitNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, activity.ErrInvalidStatus), errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, habit.ErrInvalidInput), errors.Is(err, habit.ErrInvalidRepeat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, habit.ErrBuiltInImmutable), errors.Is(err, habit.ErrChallengeLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
