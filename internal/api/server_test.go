package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lumina-dashboard/internal/advisor"
	"github.com/lumina-dashboard/internal/config"
	"github.com/lumina-dashboard/internal/dashboard"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/market"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
	"github.com/lumina-dashboard/internal/swap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *dashboard.Session {
	t.Helper()
	cfg := &config.Config{
		Simulator:     config.SimulatorConfig{TickInterval: time.Hour, GasMin: 10, GasMax: 50, GasSeed: 15},
		Notifications: config.NotificationConfig{TTL: time.Minute},
		Wallet:        config.WalletConfig{Address: "0x71...9A21"},
	}
	s, err := dashboard.New(context.Background(), dashboard.Options{
		Config: cfg,
		Random: market.RandomFunc(func() float64 { return 0.5 }),
		Gateway: advisor.GatewayFunc(func(_ context.Context, prompt string) string {
			return "advice"
		}),
		Logger: logging.Discard(),
	})
	require.NoError(t, err)
	return s
}

func createTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.RequestsPerSecond = 0
	return NewServer(cfg, testSession(t), logging.Discard())
}

func doRequest(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "lumina-dashboard", body["service"])
	assert.Equal(t, "1h0m0s", body["tickInterval"])
	assert.Equal(t, "1m0s", body["notificationTTL"])
	assert.NotContains(t, body, "tickPublisher")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

type stubTickCounter struct{ published, failed uint64 }

func (c stubTickCounter) Counts() (uint64, uint64) { return c.published, c.failed }

func TestHealth_TickPublisher(t *testing.T) {
	server := createTestServer(t)
	server.SetTickPublisher(stubTickCounter{published: 12, failed: 1})

	w := doRequest(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TickPublisher map[string]uint64 `json:"tickPublisher"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]uint64{"published": 12, "failed": 1}, body.TickPublisher)
}

func TestListAssets(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		status   int
		wantLen  int
		wantCode string
	}{
		{name: "all", query: "", status: http.StatusOK, wantLen: 6},
		{name: "explicit all", query: "?category=All", status: http.StatusOK, wantLen: 6},
		{name: "layer 1", query: "?category=Layer%201", status: http.StatusOK, wantLen: 3},
		{name: "favorites", query: "?favorites=true", status: http.StatusOK, wantLen: 2},
		{name: "unknown category", query: "?category=Memes", status: http.StatusBadRequest, wantCode: "INVALID_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := createTestServer(t)

			w := doRequest(t, server, http.MethodGet, "/api/assets"+tt.query, nil)
			require.Equal(t, tt.status, w.Code)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Error.Code)
				return
			}
			var body struct {
				Assets   []models.Asset `json:"assets"`
				GasPrice int            `json:"gasPrice"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body.Assets, tt.wantLen)
			assert.Equal(t, 15, body.GasPrice)
		})
	}
}

func TestGetAsset(t *testing.T) {
	server := createTestServer(t)

	for _, key := range []string{"bitcoin", "btc", "BTC"} {
		w := doRequest(t, server, http.MethodGet, "/api/assets/"+key, nil)
		require.Equal(t, http.StatusOK, w.Code, key)

		var a models.Asset
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
		assert.Equal(t, "BTC", a.Symbol)
	}

	w := doRequest(t, server, http.MethodGet, "/api/assets/dogecoin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)
}

func TestGetGas(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/api/gas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"gasPrice":15}`, w.Body.String())
}

func TestGetPortfolio(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/api/portfolio", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary portfolio.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, portfolio.TotalBalance(server.session.Store.Snapshot()), summary.TotalBalance, 1e-6)
	assert.Len(t, summary.Allocations, 6)
	assert.Equal(t, "BTC", summary.TopAsset.Symbol)

	var sum float64
	for _, row := range summary.Allocations {
		sum += row.Fraction
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGetQuote(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/api/swap/quote?from=ETH&to=USDC&amount=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var q swap.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, "ETH", q.From)
	assert.Equal(t, "USDC", q.To)
	assert.InDelta(t, 2450.2, q.Rate, 1e-9)
	assert.InDelta(t, 4900.4, q.Receive, 1e-9)

	t.Run("defaults", func(t *testing.T) {
		w := doRequest(t, server, http.MethodGet, "/api/swap/quote", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
		assert.Equal(t, swap.DefaultFrom, q.From)
		assert.Equal(t, swap.DefaultTo, q.To)
		assert.Zero(t, q.Receive)
	})

	t.Run("bad amount", func(t *testing.T) {
		w := doRequest(t, server, http.MethodGet, "/api/swap/quote?amount=lots", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown asset", func(t *testing.T) {
		w := doRequest(t, server, http.MethodGet, "/api/swap/quote?from=NOPE", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestExecuteSwap(t *testing.T) {
	server := createTestServer(t)
	before := server.session.Store.Snapshot()

	w := doRequest(t, server, http.MethodPost, "/api/swap", map[string]interface{}{
		"from": "BTC", "to": "ETH", "amount": 0.5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result swap.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Successfully swapped 0.5 BTC to ETH", result.Message)

	active := server.session.Notifications.Active()
	require.Len(t, active, 1)
	assert.Equal(t, result.Message, active[0].Message)
	assert.Equal(t, before, server.session.Store.Snapshot())
}

func TestExecuteSwap_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "invalid json", body: "invalid json", status: http.StatusBadRequest},
		{name: "unknown field", body: `{"from":"BTC","to":"ETH","amount":1,"slippage":2}`, status: http.StatusBadRequest},
		{name: "zero amount", body: `{"from":"BTC","to":"ETH","amount":0}`, status: http.StatusBadRequest},
		{name: "unknown asset", body: `{"from":"BTC","to":"XYZ","amount":1}`, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := createTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/api/swap", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			server.Router().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, server.session.Notifications.Active())
		})
	}
}

func TestListTransactions(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/api/transactions?type=swap", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Transactions []models.Transaction `json:"transactions"`
		Count        int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "tx-2", body.Transactions[0].ID)

	w = doRequest(t, server, http.MethodGet, "/api/transactions?type=mint", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationLifecycle(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodPost, "/api/notifications", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doRequest(t, server, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "success", string(list.Notifications[0].Severity))

	target := "/api/notifications/" + jsonNumber(created.ID)
	w = doRequest(t, server, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, server, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, server, http.MethodDelete, "/api/notifications/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, http.MethodPost, "/api/notifications", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func jsonNumber(id uint64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestActions(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodPost, "/api/actions/copy-address", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doRequest(t, server, http.MethodPost, "/api/actions/claim-rewards", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	active := server.session.Notifications.Active()
	require.Len(t, active, 2)
	assert.Equal(t, dashboard.MessageCopied, active[0].Message)
	assert.Equal(t, dashboard.MessageRewardsClaimed, active[1].Message)
}

func TestWallet(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/api/wallet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connected":false,"connecting":false}`, w.Body.String())

	w = doRequest(t, server, http.MethodPost, "/api/wallet/connect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connected":true,"connecting":false,"address":"0x71...9A21"}`, w.Body.String())
}

func TestAdvisorRoutes(t *testing.T) {
	server := createTestServer(t)

	w := doRequest(t, server, http.MethodPost, "/api/advisor/chat", map[string]string{"text": "Should I buy?"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "advice", reply.Text)

	w = doRequest(t, server, http.MethodPost, "/api/advisor/actions/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, http.MethodPost, "/api/advisor/actions/moon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, http.MethodGet, "/api/advisor/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	// greeting, two exchanges
	assert.Len(t, history.Messages, 5)

	w = doRequest(t, server, http.MethodDelete, "/api/advisor/messages", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, server.session.Advisor.Messages(), 1)

	for _, path := range []string{
		"/api/advisor/brief",
		"/api/advisor/assets/ETH/analysis",
		"/api/advisor/rebalance",
		"/api/advisor/history",
	} {
		w := doRequest(t, server, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"text":"advice"}`, w.Body.String(), path)
	}

	w = doRequest(t, server, http.MethodGet, "/api/advisor/assets/NOPE/analysis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, server, http.MethodPost, "/api/advisor/chat", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	server := NewServer(cfg, testSession(t), logging.Discard())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/gas", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		server.Router().ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000"))
	assert.Equal(t, http.StatusOK, send("192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1002"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1000"), "other clients keep their own budget")

	// health checks are not limited
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.1:1003"
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientKey(req))
}

func TestCompression(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/gas", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gasPrice":15}`, string(raw))
}

func TestCORSPreflight(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/swap", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server := createTestServer(t)

	doRequest(t, server, http.MethodGet, "/api/gas", nil)
	server.session.Simulator.Tick(context.Background())

	w := doRequest(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "lumina_market_ticks_total 1")
	assert.Contains(t, body, `lumina_http_requests_total{method="GET",route="/api/gas",status="200"} 1`)
}
