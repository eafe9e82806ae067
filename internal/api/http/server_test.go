package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/responsible-gambling/internal/rg"
	"github.com/radieske/responsible-gambling/internal/rg/storage"
)

type env struct {
	srv *httptest.Server
	reg *rg.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	reg, err := rg.NewRegistry(storage.NewMemory(), "", 32, zaptest.NewLogger(t))
	require.NoError(t, err)
	s := NewServer(zaptest.NewLogger(t), reg, []string{"*"}, nil)
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &env{srv: srv, reg: reg}
}

func (e *env) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func decodeView(t *testing.T, b []byte) rg.View {
	t.Helper()
	var v rg.View
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func TestGetSession_Defaults(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/v1/sessions/alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	v := decodeView(t, body)
	assert.Equal(t, rg.NoLossLimit, v.LossLimit)
	assert.False(t, v.IsOnBreak)
	assert.Empty(t, v.BetHistory)
}

func TestBreak_EndToEnd(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodPost, "/v1/sessions/alice/break", BreakRequest{Hours: 24})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decodeView(t, body)
	assert.True(t, v.IsOnBreak)
	assert.InDelta(t, 86_400_000, v.BreakRemainingMs, 5_000)

	resp, body = e.do(t, http.MethodDelete, "/v1/sessions/alice/break", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeView(t, body)
	assert.False(t, v.IsOnBreak)
	assert.Zero(t, v.BreakRemainingMs)
}

func TestBreak_Validation(t *testing.T) {
	e := newEnv(t)
	for _, body := range []any{BreakRequest{Hours: 0}, BreakRequest{Hours: -2}, BreakRequest{Hours: MaxBreakHours + 1}, "{oops", `{"hours":1,"extra":true}`} {
		resp, raw := e.do(t, http.MethodPost, "/v1/sessions/alice/break", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %v", body)
		assert.Contains(t, string(raw), `"error"`)
	}
	assert.False(t, e.reg.Store(context.Background(), "alice").View().IsOnBreak)
}

func TestLossLimit_EndToEnd(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodPut, "/v1/sessions/bob/loss-limit", LossLimitRequest{Dollars: 100})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, amt := range []float64{50, 50} {
		resp, _ = e.do(t, http.MethodPost, "/v1/sessions/bob/bets", BetRequest{Amount: amt, Result: "loss", Sport: "NBA"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	_, body := e.do(t, http.MethodGet, "/v1/sessions/bob", nil)
	v := decodeView(t, body)
	assert.Equal(t, 100.0, v.SessionLosses)
	assert.True(t, v.IsLossLimitReached)

	_, body = e.do(t, http.MethodDelete, "/v1/sessions/bob/loss-limit", nil)
	v = decodeView(t, body)
	assert.Equal(t, rg.NoLossLimit, v.LossLimit)
	assert.Zero(t, v.SessionLosses)
	assert.False(t, v.IsLossLimitReached)

	resp, _ = e.do(t, http.MethodPut, "/v1/sessions/bob/loss-limit", LossLimitRequest{Dollars: -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordBet_FillsIDAndTimestamp(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodPost, "/v1/sessions/carol/bets", BetRequest{Amount: 10, Result: "WIN", Sport: "props"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	v := decodeView(t, body)
	require.Len(t, v.BetHistory, 1)
	assert.NotEmpty(t, v.BetHistory[0].ID)
	assert.Equal(t, rg.ResultWin, v.BetHistory[0].Result)
	assert.Equal(t, int64(1_700_000_000_000), v.BetHistory[0].Timestamp)

	resp, _ = e.do(t, http.MethodPost, "/v1/sessions/carol/bets", BetRequest{ID: "given", Amount: 10, Result: "pending", Timestamp: 42})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st := e.reg.Store(context.Background(), "carol").State()
	assert.Equal(t, "given", st.BetHistory[1].ID)
	assert.Equal(t, int64(42), st.BetHistory[1].Timestamp)
}

func TestRecordBet_Validation(t *testing.T) {
	e := newEnv(t)
	cases := []BetRequest{
		{Amount: 10, Result: "void"},
		{Amount: 0, Result: "win"},
		{Amount: -3, Result: "loss"},
		{Amount: 3, Result: "loss", Timestamp: -1},
	}
	for _, c := range cases {
		resp, _ := e.do(t, http.MethodPost, "/v1/sessions/dave/bets", c)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "case %+v", c)
	}
	assert.Empty(t, e.reg.Store(context.Background(), "dave").State().BetHistory)
}

func TestChasingFlagAndReset(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPut, "/v1/sessions/erin/loss-limit", LossLimitRequest{Dollars: 500})
	e.do(t, http.MethodPost, "/v1/sessions/erin/break", BreakRequest{Hours: 1})
	e.do(t, http.MethodPost, "/v1/sessions/erin/bets", BetRequest{Amount: 20, Result: "loss", Timestamp: 1})
	_, body := e.do(t, http.MethodPost, "/v1/sessions/erin/bets", BetRequest{Amount: 31, Result: "loss", Timestamp: 2})
	assert.True(t, decodeView(t, body).IsChasingLosses)

	resp, body := e.do(t, http.MethodPost, "/v1/sessions/erin/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decodeView(t, body)
	assert.Empty(t, v.BetHistory)
	assert.Zero(t, v.SessionLosses)
	assert.False(t, v.IsChasingLosses)
	assert.Equal(t, 500.0, v.LossLimit)
	assert.True(t, v.IsOnBreak)
}

func TestBadgesAndSummary(t *testing.T) {
	e := newEnv(t)
	for i, res := range []string{"win", "win", "win", "loss"} {
		e.do(t, http.MethodPost, "/v1/sessions/fay/bets", BetRequest{Amount: 10, Result: res, Sport: "NASCAR", Timestamp: int64(i + 1)})
	}

	resp, body := e.do(t, http.MethodGet, "/v1/sessions/fay/badges", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var badges BadgesResponse
	require.NoError(t, json.Unmarshal(body, &badges))
	assert.Equal(t, []rg.BadgeID{rg.BadgeFirstWin, rg.BadgeOnFire}, badges.Earned)
	require.Len(t, badges.Badges, len(badges.Earned))
	assert.Equal(t, rg.BadgeFirstWin, badges.Badges[0].ID)
	assert.NotEmpty(t, badges.Badges[0].Label)

	resp, body = e.do(t, http.MethodGet, "/v1/sessions/fay/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum SummaryResponse
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, "fay", sum.UserID)
	assert.Equal(t, 4, sum.Settled)
	assert.Equal(t, 3, sum.Wins)
	assert.Equal(t, 20.0, sum.Net)
}

func TestCatalogAndCORS(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/v1/badges", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cat []rg.BadgeInfo
	require.NoError(t, json.Unmarshal(body, &cat))
	assert.Len(t, cat, 8)

	req, _ := http.NewRequest(http.MethodOptions, e.srv.URL+"/v1/sessions/x/bets", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, "*", pre.Header.Get("Access-Control-Allow-Origin"))
}
