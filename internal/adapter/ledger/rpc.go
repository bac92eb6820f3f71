package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// RPC talks JSON over HTTP to the wallet-mediated gateway that fronts
// the contract. Signing, network selection and gas estimation all
// happen on the other side of this boundary; this client only names
// methods, carries parameters and polls submitted writes until they
// settle. Transport failures map to ErrNetwork, a declined signature
// to ErrTxRejected, and contract-side rule rejections to the matching
// domain sentinel.
type RPC struct {
	url          string
	client       *http.Client
	pollInterval time.Duration
}

// NewRPC creates a gateway client for the given endpoint.
func NewRPC(url string, pollInterval time.Duration) *RPC {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &RPC{
		url:          url,
		client:       &http.Client{Timeout: 15 * time.Second},
		pollInterval: pollInterval,
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Token  string `json:"token,omitempty"`
	Params any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// codeErrors maps gateway error codes to domain sentinels. Unknown
// codes stay opaque gateway errors.
var codeErrors = map[string]error{
	"rejected":       domain.ErrTxRejected,
	"unauthorized":   domain.ErrPermission,
	"paused":         domain.ErrPermission,
	"duplicate":      domain.ErrDuplicateCooperative,
	"unknown_coop":   domain.ErrUnknownCooperative,
	"not_found":      domain.ErrCampaignNotFound,
	"closed":         domain.ErrCampaignClosed,
	"goal_not_met":   domain.ErrGoalNotMet,
	"already_paid":   domain.ErrAlreadyPaid,
	"already_audit":  domain.ErrAlreadyAudited,
	"bad_transition": domain.ErrInvalidTransition,
	"invalid":        domain.ErrValidation,
	"no_fees":        domain.ErrNoFees,
}

func (e *rpcError) toDomain() error {
	if sentinel, ok := codeErrors[e.Code]; ok {
		return fmt.Errorf("%w: %s", sentinel, e.Message)
	}
	return fmt.Errorf("gateway error %s: %s", e.Code, e.Message)
}

func (g *RPC) call(ctx context.Context, method, token string, params, result any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Token: token, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// Keep the cause in the chain: a deadline hit mid-request must
		// stay recognizable as context.DeadlineExceeded upstream.
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %s", domain.ErrNetwork, resp.Status)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("%w: decoding response: %w", domain.ErrNetwork, err)
	}
	if rr.Error != nil {
		return rr.Error.toDomain()
	}
	if result != nil {
		if err := json.Unmarshal(rr.Result, result); err != nil {
			return fmt.Errorf("%w: decoding result: %v", domain.ErrNetwork, err)
		}
	}
	return nil
}

type submitResult struct {
	Hash string `json:"hash"`
	ID   int64  `json:"id,omitempty"`
}

type txStatus struct {
	Status  string `json:"status"` // pending, confirmed, failed
	Message string `json:"message,omitempty"`
}

// rpcTx polls txStatus until the write settles or the context expires.
type rpcTx struct {
	g    *RPC
	hash string
}

func (t *rpcTx) Hash() string { return t.hash }

func (t *rpcTx) Wait(ctx context.Context) error {
	tick := time.NewTicker(t.g.pollInterval)
	defer tick.Stop()
	for {
		var st txStatus
		if err := t.g.call(ctx, "txStatus", "", map[string]string{"hash": t.hash}, &st); err != nil {
			return err
		}
		switch st.Status {
		case "confirmed":
			return nil
		case "failed":
			return fmt.Errorf("%w: %s", domain.ErrTxRejected, st.Message)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func (g *RPC) write(ctx context.Context, method, token string, params any) (port.TxHandle, error) {
	var res submitResult
	if err := g.call(ctx, method, token, params, &res); err != nil {
		return nil, err
	}
	return &rpcTx{g: g, hash: res.Hash}, nil
}

type wireCooperative struct {
	Address    string `json:"address"`
	Vault      string `json:"vault"`
	Name       string `json:"name"`
	TaxID      string `json:"taxId"`
	PersonalID string `json:"personalId"`
	Email      string `json:"email"`
}

type wireTask struct {
	ID            int64      `json:"id"`
	Cooperative   string     `json:"cooperative"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Area          string     `json:"area"`
	Goal          int64      `json:"goal"`
	Donated       int64      `json:"donated"`
	Status        string     `json:"status"`
	AuditComments string     `json:"auditComments,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	Paid          bool       `json:"paid"`
}

func (w wireTask) toDomain() domain.Campaign {
	return domain.Campaign{
		ID:            w.ID,
		Cooperative:   w.Cooperative,
		Name:          w.Name,
		Description:   w.Description,
		Area:          w.Area,
		Goal:          w.Goal,
		Donated:       w.Donated,
		Status:        domain.Status(w.Status),
		AuditComments: w.AuditComments,
		StartedAt:     w.StartedAt,
		FinishedAt:    w.FinishedAt,
		Paid:          w.Paid,
	}
}

func (g *RPC) RegisterCooperative(ctx context.Context, token string, c domain.Cooperative) (port.TxHandle, error) {
	return g.write(ctx, "registerCooperative", token, wireCooperative{
		Vault:      c.Vault,
		Name:       c.Name,
		TaxID:      c.TaxID,
		PersonalID: c.PersonalID,
		Email:      c.Email,
	})
}

func (g *RPC) CreateCampaign(ctx context.Context, token, cooperative, name, description, area string, goal int64) (port.CreateResult, error) {
	var res submitResult
	params := wireTask{Cooperative: cooperative, Name: name, Description: description, Area: area, Goal: goal}
	if err := g.call(ctx, "setTask", token, params, &res); err != nil {
		return port.CreateResult{}, err
	}
	return port.CreateResult{Tx: &rpcTx{g: g, hash: res.Hash}, ID: res.ID}, nil
}

func (g *RPC) Donate(ctx context.Context, token string, campaignID, amount int64) (port.TxHandle, error) {
	return g.write(ctx, "donate", token, map[string]int64{"id": campaignID, "amount": amount})
}

func (g *RPC) StartCampaign(ctx context.Context, token string, campaignID int64) (port.TxHandle, error) {
	return g.write(ctx, "startTask", token, map[string]int64{"id": campaignID})
}

func (g *RPC) FinalizeCampaign(ctx context.Context, token string, campaignID int64) (port.TxHandle, error) {
	return g.write(ctx, "checkTask", token, map[string]int64{"id": campaignID})
}

func (g *RPC) AuditTask(ctx context.Context, token string, campaignID int64, comments string) (port.TxHandle, error) {
	return g.write(ctx, "auditTask", token, map[string]any{"id": campaignID, "comments": comments})
}

func (g *RPC) ReleasePayment(ctx context.Context, token string, campaignID int64) (port.TxHandle, error) {
	return g.write(ctx, "releasePayment", token, map[string]int64{"id": campaignID})
}

func (g *RPC) Pause(ctx context.Context, token string) (port.TxHandle, error) {
	return g.write(ctx, "pause", token, nil)
}

func (g *RPC) Unpause(ctx context.Context, token string) (port.TxHandle, error) {
	return g.write(ctx, "unpause", token, nil)
}

func (g *RPC) WithdrawFees(ctx context.Context, token string) (port.TxHandle, error) {
	return g.write(ctx, "withdrawFees", token, nil)
}

func (g *RPC) IsPaused(ctx context.Context) (bool, error) {
	var v bool
	err := g.call(ctx, "isPaused", "", nil, &v)
	return v, err
}

func (g *RPC) RetainedFees(ctx context.Context) (int64, error) {
	var v int64
	err := g.call(ctx, "retainedFees", "", nil, &v)
	return v, err
}

func (g *RPC) TaskCount(ctx context.Context) (int64, error) {
	var v int64
	err := g.call(ctx, "getTaskCount", "", nil, &v)
	return v, err
}

func (g *RPC) Task(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	var w wireTask
	if err := g.call(ctx, "getTask", "", map[string]int64{"id": campaignID}, &w); err != nil {
		return domain.Campaign{}, err
	}
	return w.toDomain(), nil
}

func (g *RPC) CooperativeCount(ctx context.Context) (int64, error) {
	var v int64
	err := g.call(ctx, "getCooperativeCount", "", nil, &v)
	return v, err
}

func (g *RPC) Cooperative(ctx context.Context, index int64) (domain.Cooperative, error) {
	var w wireCooperative
	if err := g.call(ctx, "getCooperative", "", map[string]int64{"index": index}, &w); err != nil {
		return domain.Cooperative{}, err
	}
	return domain.Cooperative{
		Address:    w.Address,
		Vault:      w.Vault,
		Name:       w.Name,
		TaxID:      w.TaxID,
		PersonalID: w.PersonalID,
		Email:      w.Email,
	}, nil
}
