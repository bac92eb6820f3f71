package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

type campaignDTO struct {
	ID            int64      `json:"id"`
	Cooperative   string     `json:"cooperative"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Area          string     `json:"area"`
	Goal          int64      `json:"goal"`
	Donated       int64      `json:"donated"`
	PercentFunded int        `json:"percent_funded"`
	Status        string     `json:"status"`
	AuditComments string     `json:"audit_comments,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Paid          bool       `json:"paid"`
	PayoutReady   bool       `json:"payout_ready"`
}

func toCampaignDTO(c domain.Campaign) campaignDTO {
	return campaignDTO{
		ID:            c.ID,
		Cooperative:   c.Cooperative,
		Name:          c.Name,
		Description:   c.Description,
		Area:          c.Area,
		Goal:          c.Goal,
		Donated:       c.Donated,
		PercentFunded: c.PercentFunded(),
		Status:        string(c.Status),
		AuditComments: c.AuditComments,
		StartedAt:     c.StartedAt,
		FinishedAt:    c.FinishedAt,
		Paid:          c.Paid,
		PayoutReady:   c.PayoutEligible(),
	}
}

func campaignID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// handleCreateCampaign creates a campaign for a registered
// cooperative. Returns 201 with the ledger-assigned id.
func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cooperative string `json:"cooperative"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Area        string `json:"area"`
		Goal        int64  `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	camp, err := h.svc.CreateCampaign(r.Context(), port.CreateCampaignReq{
		Cooperative: req.Cooperative,
		Name:        req.Name,
		Description: req.Description,
		Area:        req.Area,
		Goal:        req.Goal,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toCampaignDTO(camp))
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	camps, err := h.svc.Campaigns(r.Context())
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

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	camp, err := h.svc.Campaign(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignDTO(camp))
}

// handleDonate records a donation against an open or funded campaign.
func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	camp, err := h.svc.RecordDonation(r.Context(), id, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignDTO(camp))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.StartCampaign)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.FinalizeCampaign)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.ReleasePayment)
}

// handleAudit attaches review comments to a finalized campaign.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	var req struct {
		Comments string `json:"comments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	camp, err := h.svc.AuditCampaign(r.Context(), id, req.Comments)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignDTO(camp))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (domain.Campaign, error)) {
	id, ok := campaignID(r)
	if !ok {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	camp, err := op(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignDTO(camp))
}
