package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// Handler is the inbound HTTP adapter. It exposes every coordinator
// operation as a JSON endpoint and maps domain errors to status codes.
// Page rendering lives elsewhere; this layer only serves the model.
type Handler struct {
	svc    port.Coordinator
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(svc port.Coordinator, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/cooperatives", h.handleRegisterCooperative)
		r.Get("/cooperatives", h.handleListCooperatives)
		r.Get("/cooperatives/{address}/campaigns", h.handleCooperativeCampaigns)

		r.Post("/campaigns", h.handleCreateCampaign)
		r.Get("/campaigns", h.handleListCampaigns)
		r.Get("/campaigns/{id}", h.handleGetCampaign)
		r.Post("/campaigns/{id}/donate", h.handleDonate)
		r.Post("/campaigns/{id}/start", h.handleStart)
		r.Post("/campaigns/{id}/finalize", h.handleFinalize)
		r.Post("/campaigns/{id}/audit", h.handleAudit)
		r.Post("/campaigns/{id}/release", h.handleRelease)

		r.Get("/status", h.handleStatus)
		r.Post("/admin/pause", h.handleTogglePause)
		r.Post("/admin/withdraw", h.handleWithdraw)
		r.Post("/sync", h.handleSync)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps a domain error onto an HTTP status. Pending-unknown
// is 202: the write may have landed and the client must re-sync rather
// than retry.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrTxRejected):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrCampaignNotFound), errors.Is(err, domain.ErrUnknownCooperative):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateCooperative),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrGoalNotMet),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrAlreadyAudited),
		errors.Is(err, domain.ErrCampaignClosed),
		errors.Is(err, domain.ErrNoFees),
		errors.Is(err, domain.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPendingUnknown):
		status = http.StatusAccepted
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrSync):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("internal error", slog.Any("error", err))
		h.writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}
