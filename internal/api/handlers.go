// Package api exposes the orchestration façade over HTTP (chi router,
// bearer auth) and as MCP tools for agent hosts.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/wingman/internal/orchestrator"
	"github.com/kalambet/wingman/internal/prompt"
	"github.com/kalambet/wingman/internal/recorder"
	"github.com/kalambet/wingman/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// TargetStore is the target persistence surface the API needs.
type TargetStore interface {
	CreateTarget(storage.Target) error
	GetTarget(id string) (storage.Target, error)
	ListTargets(userID string) ([]storage.Target, error)
	UpdateTargetProfile(id string, profileJSON string) error
}

// Deps holds everything the HTTP surface depends on.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Recorder     *recorder.Recorder
	Targets      TargetStore
	Token        string
}

// NewHandler returns the HTTP API. /health is open; everything under
// /v1 requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/assist/openers", handleOpeners(deps))
		r.Post("/assist/reply", handleReply(deps))
		r.Post("/assist/intent", handleIntent(deps))
		r.Post("/assist/transcreate", handleTranscreate(deps))

		r.Get("/interactions", handleListInteractions(deps))

		r.Post("/targets", handleCreateTarget(deps))
		r.Get("/targets", handleListTargets(deps))
		r.Get("/targets/{id}", handleGetTarget(deps))
		r.Patch("/targets/{id}", handleUpdateTarget(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// userContext is the per-call user state shared by assist requests.
type userContext struct {
	UserID   string               `json:"user_id"`
	TargetID string               `json:"target_id"`
	Gender   string               `json:"gender"`
	Goal     string               `json:"goal"`
	Tone     string               `json:"tone"`
	Profile  prompt.TargetProfile `json:"profile"`
}

func (u userContext) promptContext() prompt.UserContext {
	return prompt.UserContext{
		Gender: prompt.Gender(u.Gender),
		Goal:   prompt.Goal(u.Goal),
		Tone:   prompt.Tone(u.Tone),
	}
}

func (u userContext) identity() orchestrator.Identity {
	return orchestrator.Identity{UserID: u.UserID, TargetID: u.TargetID}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// writeOrchestrationError maps façade failures to HTTP responses,
// keeping only the sanitized message.
func writeOrchestrationError(w http.ResponseWriter, err error) {
	var oe *orchestrator.OrchestrationError
	if errors.As(err, &oe) {
		switch oe.Hint {
		case orchestrator.HintInvalidInput:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", oe.Error())
		case orchestrator.HintCheckConfig:
			httpError(w, http.StatusBadGateway, "configuration_error", "%s", oe.Error())
		default:
			httpError(w, http.StatusBadGateway, "api_error", "%s", oe.Error())
		}
		return
	}
	httpError(w, http.StatusInternalServerError, "api_error", "internal error")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func handleOpeners(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			userContext
			Topic string `json:"topic"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		openers, err := deps.Orchestrator.GenerateOpeners(
			r.Context(), req.identity(), req.promptContext(), req.Profile, prompt.TopicCategory(req.Topic))
		if err != nil {
			writeOrchestrationError(w, err)
			return
		}
		writeJSON(w, map[string]any{"openers": openers})
	}
}

func handleReply(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			userContext
			Conversation string `json:"conversation"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		result, err := deps.Orchestrator.AnalyzeAndSuggestReply(
			r.Context(), req.identity(), req.promptContext(), req.Profile, req.Conversation)
		if err != nil {
			writeOrchestrationError(w, err)
			return
		}
		writeJSON(w, result)
	}
}

func handleIntent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID       string `json:"user_id"`
			TargetID     string `json:"target_id"`
			Gender       string `json:"gender"`
			Conversation string `json:"conversation"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		// The analyst persona names the target; resolve it when known.
		targetName := "the other party"
		if req.TargetID != "" {
			if tg, err := deps.Targets.GetTarget(req.TargetID); err == nil {
				targetName = tg.Name
			}
		}

		result, err := deps.Orchestrator.AnalyzeIntent(
			r.Context(),
			orchestrator.Identity{UserID: req.UserID, TargetID: req.TargetID},
			req.Conversation, prompt.Gender(req.Gender), targetName)
		if err != nil {
			writeOrchestrationError(w, err)
			return
		}
		writeJSON(w, result)
	}
}

func handleTranscreate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			userContext
			Text  string   `json:"text"`
			Texts []string `json:"texts"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if len(req.Texts) > 0 {
			translations, err := deps.Orchestrator.TranscreateBatch(
				r.Context(), req.promptContext(), req.Profile, req.Texts)
			if err != nil {
				writeOrchestrationError(w, err)
				return
			}
			writeJSON(w, map[string]any{"translations": translations})
			return
		}

		translation, err := deps.Orchestrator.Transcreate(
			r.Context(), req.promptContext(), req.Profile, req.Text)
		if err != nil {
			writeOrchestrationError(w, err)
			return
		}
		writeJSON(w, map[string]any{"translation": translation})
	}
}

// interactionView is the wire shape of one audit entry.
type interactionView struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	TargetID     string          `json:"target_id"`
	Goal         string          `json:"goal"`
	Mode         string          `json:"mode"`
	Conversation string          `json:"conversation"`
	Result       json.RawMessage `json:"result"`
	Timestamp    time.Time       `json:"timestamp"`
}

func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		days := 0
		if d := r.URL.Query().Get("days"); d != "" {
			parsed, err := strconv.Atoi(d)
			if err != nil || parsed < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "days must be a non-negative integer")
				return
			}
			days = parsed
		}

		records, err := deps.Recorder.Query(userID, days)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "querying interactions: %v", err)
			return
		}

		views := make([]interactionView, len(records))
		for i, rec := range records {
			views[i] = interactionView{
				ID:           rec.ID,
				UserID:       rec.UserID,
				TargetID:     rec.TargetID,
				Goal:         rec.Goal,
				Mode:         rec.Mode,
				Conversation: rec.Conversation,
				Result:       json.RawMessage(rec.ResultJSON),
				Timestamp:    rec.CreatedAt,
			}
		}
		writeJSON(w, map[string]any{"interactions": views})
	}
}

// targetView is the wire shape of a stored target.
type targetView struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Name      string               `json:"name"`
	Profile   prompt.TargetProfile `json:"profile"`
	CreatedAt time.Time            `json:"created_at"`
}

func toTargetView(t storage.Target) targetView {
	var profile prompt.TargetProfile
	if err := json.Unmarshal([]byte(t.ProfileJSON), &profile); err != nil {
		// A corrupt row should not fail the whole response; serve the
		// target with an empty profile and leave a trace.
		slog.Warn("parsing stored target profile", "target", t.ID, "error", err)
	}
	return targetView{ID: t.ID, UserID: t.UserID, Name: t.Name, Profile: profile, CreatedAt: t.CreatedAt}
}

func handleCreateTarget(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Name   string `json:"name"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if req.UserID == "" || req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id and name are required")
			return
		}

		t := storage.Target{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			Name:      req.Name,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Targets.CreateTarget(t); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating target: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(toTargetView(t))
	}
}

func handleListTargets(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		targets, err := deps.Targets.ListTargets(userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing targets: %v", err)
			return
		}
		views := make([]targetView, len(targets))
		for i, t := range targets {
			views[i] = toTargetView(t)
		}
		writeJSON(w, map[string]any{"targets": views})
	}
}

func handleGetTarget(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := deps.Targets.GetTarget(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "target not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "getting target: %v", err)
			return
		}
		writeJSON(w, toTargetView(t))
	}
}

func handleUpdateTarget(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Profile prompt.TargetProfile `json:"profile"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		profileJSON, err := json.Marshal(req.Profile)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid profile: %v", err)
			return
		}

		id := chi.URLParam(r, "id")
		if err := deps.Targets.UpdateTargetProfile(id, string(profileJSON)); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "target not found")
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "updating target: %v", err)
			return
		}

		t, err := deps.Targets.GetTarget(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reloading target: %v", err)
			return
		}
		writeJSON(w, toTargetView(t))
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
