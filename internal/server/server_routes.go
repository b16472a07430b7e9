package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
	"github.com/brk3/fifty/pkg/versioninfo"
)

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	info := versioninfo.VersionInfo{
		Version:   versioninfo.Version,
		BuildDate: versioninfo.BuildDate,
	}
	if err := writeJSON(w, http.StatusOK, info); err != nil {
		logger.Error("Failed to serialize version info response", "error", err)
		http.Error(w, `{"error":"failed to serialize version info"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)
	logger.Debug("Getting profile", "user_id", user.UID)

	t, err := s.trackerFor(r.Context(), user)
	if err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	p, err := t.Profile(r.Context())
	if err != nil {
		logger.Error("Failed to load profile", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	dayNum := challenge.DaysSince(p.StartDate, challenge.Today())

	resp := ProfileResponse{Profile: p, DayNumber: dayNum}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize profile response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)

	t, err := s.trackerFor(r.Context(), user)
	if err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	rec := t.Record(r.Context())

	resp := DayResponse{
		Day:      challenge.Today(),
		Fields:   rec.Fields(),
		Progress: rec.Flags.Fraction(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize progress response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)
	date := chi.URLParam(r, "date")

	day := challenge.DayKey(date)
	if date == "today" {
		day = challenge.Today()
	}
	if !day.Valid() {
		http.Error(w, `{"error":"invalid date, want YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	if day == challenge.Today() {
		t, err := s.trackerFor(r.Context(), user)
		if err != nil {
			logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
			http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
			return
		}
		rec := t.Record(r.Context())
		resp := DayResponse{Day: day, Fields: rec.Fields(), Progress: rec.Flags.Fraction()}
		if err := writeJSON(w, http.StatusOK, resp); err != nil {
			logger.Error("Failed to serialize day response", "user_id", user.UID, "error", err)
			http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		}
		return
	}

	fields, err := s.store.GetDay(r.Context(), user.UID, day)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"day not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to get day", "user_id", user.UID, "day", day, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	rec := challenge.RecordFromFields(fields)
	resp := DayResponse{Day: day, Fields: rec.Fields(), Progress: rec.Flags.Fraction()}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize day response", "user_id", user.UID, "day", day, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) toggleHabit(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)
	habitID := chi.URLParam(r, "habit_id")
	logger.Debug("Toggling habit", "user_id", user.UID, "habit_id", habitID)

	t, err := s.trackerFor(r.Context(), user)
	if err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	rec, synced, err := t.ToggleHabit(r.Context(), habitID)
	if err != nil {
		logger.Warn("Toggle rejected", "user_id", user.UID, "habit_id", habitID, "error", err)
		http.Error(w, `{"error":"unknown habit id"}`, http.StatusBadRequest)
		return
	}
	logger.Info("Habit toggled", "user_id", user.UID, "habit_id", habitID, "synced", synced)

	resp := ToggleResponse{
		Day:      challenge.Today(),
		Fields:   rec.Fields(),
		Progress: rec.Flags.Fraction(),
		Synced:   synced,
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize toggle response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) putAux(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if len(fields) == 0 {
		http.Error(w, `{"error":"no fields to set"}`, http.StatusBadRequest)
		return
	}
	for k := range fields {
		if challenge.IsHabitKey(k) {
			http.Error(w, `{"error":"habit keys are reserved, use the toggle endpoint"}`, http.StatusBadRequest)
			return
		}
	}

	t, err := s.trackerFor(r.Context(), user)
	if err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	// One merged write for the whole request, not one per field.
	synced, err := t.SetAuxFields(r.Context(), fields)
	if err != nil {
		http.Error(w, `{"error":"invalid aux field"}`, http.StatusBadRequest)
		return
	}

	rec := t.Record(r.Context())
	resp := ToggleResponse{
		Day:      challenge.Today(),
		Fields:   rec.Fields(),
		Progress: rec.Flags.Fraction(),
		Synced:   synced,
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize aux response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)
	month := r.URL.Query().Get("month")
	if _, err := time.Parse("2006-01", month); err != nil {
		http.Error(w, `{"error":"invalid month, want YYYY-MM"}`, http.StatusBadRequest)
		return
	}

	from := challenge.DayKey(month + "-01")
	to := challenge.DayKey(month + "-31")
	days, err := s.store.ListDays(r.Context(), user.UID, from, to)
	if err != nil {
		logger.Error("Failed to list days", "user_id", user.UID, "month", month, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	resp := CalendarResponse{Month: month, Days: days}
	if resp.Days == nil {
		resp.Days = map[challenge.DayKey]map[string]any{}
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize calendar response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) syncPending(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)
	logger.Debug("Syncing pending writes", "user_id", user.UID)

	t, err := s.trackerFor(r.Context(), user)
	if err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	synced, err := t.Sync(r.Context())
	if err != nil {
		logger.Error("Sync failed", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"sync failed"}`, http.StatusInternalServerError)
		return
	}

	resp := SyncResponse{Synced: synced, Pending: t.HasPending()}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize sync response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)

	days, err := s.queue.PendingDays(user.UID)
	if err != nil {
		logger.Error("Failed to read pending queue", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	resp := SyncStatusResponse{Pending: len(days) > 0, Days: days}
	if resp.Days == nil {
		resp.Days = []challenge.DayKey{}
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize sync status response", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) resetAccount(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)
	logger.Info("Resetting account", "user_id", user.UID)

	t, err := s.trackerFor(r.Context(), user)
	if err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	if err := t.Reset(r.Context()); err != nil {
		logger.Error("Reset failed", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"reset failed"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
