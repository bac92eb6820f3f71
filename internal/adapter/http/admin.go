package httpadapter

import (
	"net/http"

	"manguechain/internal/core/port"
)

type statusDTO struct {
	Paused       bool  `json:"paused"`
	RetainedFees int64 `json:"retained_fees"`
}

func toStatusDTO(s port.PlatformStatus) statusDTO {
	return statusDTO{Paused: s.Paused, RetainedFees: s.RetainedFees}
}

// handleStatus returns the last reconciled pause flag and fee balance.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStatusDTO(st))
}

// handleTogglePause flips the global paused flag. The ledger enforces
// the administrator role; a non-admin signer sees 403.
func (h *Handler) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.TogglePause(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStatusDTO(st))
}

// handleWithdraw withdraws the retained fee balance.
func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.WithdrawFees(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStatusDTO(st))
}

// handleSync forces a reconciliation pass, the explicit user refresh.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sync(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	st, err := h.svc.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStatusDTO(st))
}
