package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clawearning/backend/internal/config"
	"github.com/clawearning/backend/internal/handlers"
	"github.com/clawearning/backend/internal/logging"
	"github.com/clawearning/backend/internal/middleware"
	"github.com/clawearning/backend/internal/services/accounts"
	"github.com/clawearning/backend/internal/services/actions"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/progression"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/clawearning/backend/internal/services/withdrawal"
	"github.com/clawearning/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-test-secret"

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, notes ...notify.Notification) error { return nil }

type testServer struct {
	router *gin.Engine
	store  *ledger.MemoryStore
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	store := ledger.NewMemoryStore(clock)
	log := logging.Discard()
	engine := rewards.NewEngine(store, ledger.NewCalendar(clock, time.UTC), progression.NewEvaluator(nil),
		config.DefaultEconomy(), nopPublisher{}, log)
	manager := accounts.NewManager(store, engine, nopPublisher{}, "ClawEarningBot", log)
	authorizer := withdrawal.NewAuthorizer(engine, nopPublisher{}, log)

	cfg := &config.Config{Environment: "test", JWT: config.JWTConfig{Secret: testSecret}}
	limiter := middleware.NewRateLimiter(1000, 1000)
	t.Cleanup(limiter.Stop)

	router := NewRouter(cfg, Handlers{
		Ledger:  handlers.NewLedgerHandler(store, engine),
		Account: handlers.NewAccountHandler(manager, authorizer),
		Action:  handlers.NewActionHandler(actions.NewDispatcher(manager, engine, authorizer, log)),
		Health:  handlers.NewHealthHandler(store),
	}, limiter, log)

	token, err := utils.IssueServiceToken(testSecret, "telegram-bot", time.Hour)
	require.NoError(t, err)

	return &testServer{router: router, store: store, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, auth bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCreateAccountAndBalance(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/accounts", gin.H{"accountId": "u1"}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/accounts", gin.H{"accountId": "u1"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/balance?accountId=u1", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var balance struct {
		AccountID string `json:"accountId"`
		Balance   int64  `json:"balance"`
	}
	decode(t, w, &balance)
	assert.Equal(t, "u1", balance.AccountID)
	assert.Equal(t, int64(20), balance.Balance)

	w = s.do(t, http.MethodGet, "/balance?accountId=ghost", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_account")
}

func TestWritesRequireServiceToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/accounts", gin.H{"accountId": "u1"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/credit", gin.H{"accountId": "u1", "amount": 5, "source": "adnet"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCredit(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/accounts", gin.H{"accountId": "u1"}, true).Code)

	w := s.do(t, http.MethodPost, "/credit", gin.H{"accountId": "u1", "amount": 30, "source": "adnet"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accountId":"u1","balance":50}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/credit", gin.H{"accountId": "u1", "amount": -3, "source": "adnet"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/credit", gin.H{"accountId": "ghost", "amount": 3, "source": "adnet"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"b", "a", "c"} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/accounts", gin.H{"accountId": id}, true).Code)
	}
	require.Equal(t, http.StatusOK,
		s.do(t, http.MethodPost, "/credit", gin.H{"accountId": "c", "amount": 600, "source": "adnet"}, true).Code)

	w := s.do(t, http.MethodGet, "/leaderboard?limit=2", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []struct {
		AccountID     string `json:"accountId"`
		TotalEarnings int64  `json:"totalEarnings"`
		Tier          string `json:"tier"`
	}
	decode(t, w, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].AccountID)
	assert.Equal(t, "Silver", entries[0].Tier)
	assert.Equal(t, "a", entries[1].AccountID)

	w = s.do(t, http.MethodGet, "/leaderboard?limit=zero", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/actions", gin.H{"accountId": "u1", "actionKind": "start"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/actions", gin.H{"accountId": "u1", "actionKind": "daily_bonus"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/actions", gin.H{"accountId": "u1", "actionKind": "daily_bonus"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	var result actions.Result
	decode(t, w, &result)
	assert.Equal(t, actions.StatusDeclined, result.Status)
	assert.Equal(t, "already_claimed", result.Reason)
}

func TestWithdrawalEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/accounts", gin.H{"accountId": "u1"}, true).Code)

	w := s.do(t, http.MethodPost, "/accounts/u1/withdrawals", nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no_payout_destination")

	w = s.do(t, http.MethodPut, "/accounts/u1/payout-destination", gin.H{"destination": "UQ-wallet"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/accounts/u1/withdrawals", nil, true)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"accountId":"u1","amount":20,"destination":"UQ-wallet","balance":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/accounts/u1/history", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	decode(t, w, &history)
	assert.Len(t, history, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}
