package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

type cooperativeDTO struct {
	Address    string `json:"address"`
	Vault      string `json:"vault"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	PersonalID string `json:"personal_id"`
	Email      string `json:"email"`
}

func toCooperativeDTO(c domain.Cooperative) cooperativeDTO {
	return cooperativeDTO{
		Address:    c.Address,
		Vault:      c.Vault,
		Name:       c.Name,
		TaxID:      c.TaxID,
		PersonalID: c.PersonalID,
		Email:      c.Email,
	}
}

// handleRegisterCooperative registers a new cooperative. The body
// carries the five registration fields; the ledger assigns the
// address. Returns 201 with the reconciled record.
func (h *Handler) handleRegisterCooperative(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vault      string `json:"vault"`
		Name       string `json:"name"`
		TaxID      string `json:"tax_id"`
		PersonalID string `json:"personal_id"`
		Email      string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	coop, err := h.svc.RegisterCooperative(r.Context(), port.RegisterCooperativeReq{
		Vault:      req.Vault,
		Name:       req.Name,
		TaxID:      req.TaxID,
		PersonalID: req.PersonalID,
		Email:      req.Email,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toCooperativeDTO(coop))
}

// handleListCooperatives returns the reconciled registry.
func (h *Handler) handleListCooperatives(w http.ResponseWriter, r *http.Request) {
	coops, err := h.svc.Cooperatives(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]cooperativeDTO, 0, len(coops))
	for _, c := range coops {
		out = append(out, toCooperativeDTO(c))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleCooperativeCampaigns returns the dashboard listing for one
// cooperative.
func (h *Handler) handleCooperativeCampaigns(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	camps, err := h.svc.CampaignsByCooperative(r.Context(), address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]campaignDTO, 0, len(camps))
	for _, c := range camps {
		out = append(out, toCampaignDTO(c))
	}
	h.writeJSON(w, http.StatusOK, out)
}
