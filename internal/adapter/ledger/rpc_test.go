package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"manguechain/internal/core/domain"
)

// fakeGatewayServer answers gateway calls from a method -> response
// table and records tx status progressions.
func fakeGatewayServer(t *testing.T, handle func(method string, params json.RawMessage) (any, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRPCReads(t *testing.T) {
	srv := fakeGatewayServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "isPaused":
			return true, nil
		case "retainedFees":
			return 1250, nil
		case "getTaskCount":
			return 1, nil
		case "getTask":
			return wireTask{
				ID: 1, Cooperative: "0x01", Name: "Campanha", Goal: 1000,
				Donated: 350, Status: "open",
			}, nil
		default:
			t.Fatalf("unexpected method %s", method)
			return nil, nil
		}
	})
	defer srv.Close()

	g := NewRPC(srv.URL, 10*time.Millisecond)
	ctx := context.Background()

	paused, err := g.IsPaused(ctx)
	require.NoError(t, err)
	require.True(t, paused)

	fees, err := g.RetainedFees(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1250), fees)

	n, err := g.TaskCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	task, err := g.Task(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, task.Status)
	require.Equal(t, int64(350), task.Donated)
}

// TestRPCWriteConfirmation submits a donation and polls its status
// through pending to confirmed.
func TestRPCWriteConfirmation(t *testing.T) {
	polls := 0
	srv := fakeGatewayServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "donate":
			return submitResult{Hash: "0xabc"}, nil
		case "txStatus":
			polls++
			if polls < 3 {
				return txStatus{Status: "pending"}, nil
			}
			return txStatus{Status: "confirmed"}, nil
		default:
			t.Fatalf("unexpected method %s", method)
			return nil, nil
		}
	})
	defer srv.Close()

	g := NewRPC(srv.URL, time.Millisecond)
	tx, err := g.Donate(context.Background(), "tok", 1, 500)
	require.NoError(t, err)
	require.Equal(t, "0xabc", tx.Hash())
	require.NoError(t, tx.Wait(context.Background()))
	require.GreaterOrEqual(t, polls, 3)
}

func TestRPCWriteFailure(t *testing.T) {
	srv := fakeGatewayServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "releasePayment":
			return submitResult{Hash: "0xdead"}, nil
		case "txStatus":
			return txStatus{Status: "failed", Message: "user declined signature"}, nil
		default:
			t.Fatalf("unexpected method %s", method)
			return nil, nil
		}
	})
	defer srv.Close()

	g := NewRPC(srv.URL, time.Millisecond)
	tx, err := g.ReleasePayment(context.Background(), "tok", 1)
	require.NoError(t, err)
	require.ErrorIs(t, tx.Wait(context.Background()), domain.ErrTxRejected)
}

// TestRPCErrorMapping checks contract-side rejections become the
// matching domain sentinels.
func TestRPCErrorMapping(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"duplicate", domain.ErrDuplicateCooperative},
		{"paused", domain.ErrPermission},
		{"goal_not_met", domain.ErrGoalNotMet},
		{"already_paid", domain.ErrAlreadyPaid},
		{"not_found", domain.ErrCampaignNotFound},
		{"rejected", domain.ErrTxRejected},
	}
	for _, tc := range cases {
		srv := fakeGatewayServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: tc.code, Message: "nope"}
		})
		g := NewRPC(srv.URL, time.Millisecond)
		_, err := g.Donate(context.Background(), "tok", 1, 1)
		require.ErrorIs(t, err, tc.want, "code %s", tc.code)
		srv.Close()
	}
}

// TestRPCSlowPollKeepsDeadlineCause stalls a txStatus poll past the
// wait deadline: the returned error must still carry
// context.DeadlineExceeded so callers classify it as a timed-out
// confirmation rather than a plain transport failure.
func TestRPCSlowPollKeepsDeadlineCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Method == "txStatus" {
			time.Sleep(500 * time.Millisecond)
		}
		// The client may be gone by now; encode errors are irrelevant.
		_ = json.NewEncoder(w).Encode(map[string]any{"result": submitResult{Hash: "0xslow"}})
	}))
	defer srv.Close()

	g := NewRPC(srv.URL, time.Millisecond)
	tx, err := g.Donate(context.Background(), "tok", 1, 500)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = tx.Wait(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRPCNetworkError(t *testing.T) {
	srv := fakeGatewayServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		return nil, nil
	})
	srv.Close() // connection refused from here on

	g := NewRPC(srv.URL, time.Millisecond)
	_, err := g.IsPaused(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
}
