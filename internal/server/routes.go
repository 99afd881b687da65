package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/ishaan-bit/reverie/internal/kv"
	"github.com/ishaan-bit/reverie/internal/recap"
)

// momentRequest is the loosely-typed wire shape of a recorded moment. It
// is validated here, at the boundary, into a typed recap.Moment; the core
// never sees partially-typed data.
type momentRequest struct {
	UserID  string   `json:"user_id"`
	Text    string   `json:"text"`
	Mood    string   `json:"mood"`
	Valence *float64 `json:"valence,omitempty"`
	Arousal *float64 `json:"arousal,omitempty"`
}

func (req *momentRequest) validate() (*recap.Moment, error) {
	if req.UserID == "" {
		return nil, errors.New("user_id required")
	}
	if req.Text == "" {
		return nil, errors.New("text required")
	}
	mood, err := recap.ParseMood(req.Mood)
	if err != nil {
		return nil, err
	}
	for _, sig := range []*float64{req.Valence, req.Arousal} {
		if sig != nil && (*sig < 0 || *sig > 1) {
			return nil, errors.New("signals must be within [0,1]")
		}
	}
	return &recap.Moment{
		UserID:  req.UserID,
		Text:    req.Text,
		Mood:    mood,
		Valence: req.Valence,
		Arousal: req.Arousal,
	}, nil
}

func (s *Server) handleCreateMoment(w http.ResponseWriter, r *http.Request) {
	var req momentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	m, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.CreateMoment(r.Context(), m); err != nil {
		s.log.Error().Err(err).Str("user_id", m.UserID).Msg("create moment failed")
		writeError(w, http.StatusInternalServerError, "store moment failed")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMoments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user query parameter required")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	moments, err := s.db.ListMomentsSince(r.Context(), userID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("list moments failed")
		writeError(w, http.StatusInternalServerError, "list moments failed")
		return
	}
	if moments == nil {
		moments = []recap.Moment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"moments": moments,
		"count":   len(moments),
	})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Kind   string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	kind, err := recap.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.builder.Build(r.Context(), req.UserID, kind)
	if err != nil {
		if errors.Is(err, recap.ErrInvariant) {
			s.log.Error().Err(err).Str("user_id", req.UserID).Msg("build invariant violated")
			writeError(w, http.StatusInternalServerError, "build produced an invalid script")
			return
		}
		s.log.Error().Err(err).Str("user_id", req.UserID).Msg("build failed")
		writeError(w, http.StatusInternalServerError, "build failed")
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	scriptID := chi.URLParam(r, "scriptID")

	script, err := s.scripts.GetScript(r.Context(), scriptID)
	if errors.Is(err, kv.ErrScriptNotFound) {
		writeError(w, http.StatusNotFound, "script not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("script_id", scriptID).Msg("get script failed")
		writeError(w, http.StatusInternalServerError, "get script failed")
		return
	}

	writeJSON(w, http.StatusOK, script)
}
