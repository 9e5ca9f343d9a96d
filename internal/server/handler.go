package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dockersentinel/internal/capabilities"
	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type handler struct {
	deps Dependencies
}

// AuditRequest is the body of POST /v1/audit. Kind may be omitted when File
// names the artifact.
type AuditRequest struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Content string `json:"content"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// gate always answers 200: the decision itself carries the verdict, and
// unreadable bodies are rejections.
func (h *handler) gate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := h.deps.Gate.DecideReader(ctx, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	writeJSON(w, r, http.StatusOK, d)
}

func (h *handler) audit(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err))
		return
	}
	var req AuditRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	var kind rules.Kind
	switch {
	case strings.TrimSpace(req.Kind) != "":
		kind, err = rules.ParseKind(req.Kind)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		if kind != rules.KindDockerfile && kind != rules.KindCompose {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("kind must be dockerfile or compose, got %s", kind))
			return
		}
	case req.File != "":
		kind = engine.DetectKind(req.File)
	default:
		writeError(w, r, http.StatusBadRequest, errors.New("kind or file is required"))
		return
	}

	report := h.deps.Engine.Audit(req.File, kind, req.Content)
	logger.Debug().Str("kind", string(kind)).Int("issues", report.Summary.TotalIssues).Msg("audited")
	writeJSON(w, r, http.StatusOK, report)
}

func (h *handler) listRules(w http.ResponseWriter, r *http.Request) {
	var filter rules.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := rules.ParseKind(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		filter = k
	}
	out := []rules.Info{}
	for _, rule := range h.deps.Engine.Catalog().List() {
		if filter != "" && rule.Kind != filter {
			continue
		}
		out = append(out, rule.Info())
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) listCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.deps.Capabilities.Listing())
}

func (h *handler) getCapabilities(w http.ResponseWriter, r *http.Request) {
	appType := chi.URLParam(r, "appType")
	advice, err := h.deps.Capabilities.Advise(appType)
	if err != nil {
		status := http.StatusInternalServerError
		var nf *capabilities.NotFoundError
		if errors.As(err, &nf) {
			status = http.StatusNotFound
		}
		writeJSON(w, r, status, capabilities.NewErrorResponse(err))
		return
	}
	writeJSON(w, r, http.StatusOK, advice)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, errorBody{Status: engine.StatusError, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
