package handlers

import (
	"net/http"
	"strconv"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/accounts"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/gin-gonic/gin"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	defaultHistoryLimit     = 50
	maxHistoryLimit         = 500
)

// LedgerHandler serves balances, external credits and rankings
type LedgerHandler struct {
	store  ledger.Store
	engine *rewards.Engine
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(store ledger.Store, engine *rewards.Engine) *LedgerHandler {
	return &LedgerHandler{store: store, engine: engine}
}

type balanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   int64  `json:"balance"`
}

type leaderboardEntry struct {
	AccountID     string      `json:"accountId"`
	TotalEarnings int64       `json:"totalEarnings"`
	Tier          models.Tier `json:"tier"`
}

// GetBalance returns the spendable balance of ?accountId=
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	id := c.Query("accountId")
	if err := accounts.ValidateID(id); err != nil {
		respondError(c, err)
		return
	}

	account, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, balanceResponse{AccountID: account.ID, Balance: account.Balance})
}

// Credit applies an external reward callback
func (h *LedgerHandler) Credit(c *gin.Context) {
	var input struct {
		AccountID string `json:"accountId" binding:"required"`
		Amount    int64  `json:"amount" binding:"required"`
		Source    string `json:"source" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := accounts.ValidateID(input.AccountID); err != nil {
		respondError(c, err)
		return
	}

	out, err := h.engine.Credit(c.Request.Context(), input.AccountID, input.Amount, input.Source)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, balanceResponse{AccountID: out.Account.ID, Balance: out.Account.Balance})
}

// GetLeaderboard ranks accounts by lifetime earnings
func (h *LedgerHandler) GetLeaderboard(c *gin.Context) {
	limit, err := parseLimit(c, defaultLeaderboardLimit, maxLeaderboardLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	top, err := h.store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]leaderboardEntry, 0, len(top))
	for _, a := range top {
		entries = append(entries, leaderboardEntry{
			AccountID:     a.ID,
			TotalEarnings: a.TotalEarnings,
			Tier:          a.Tier,
		})
	}
	c.JSON(http.StatusOK, entries)
}

// GetHistory returns the newest ledger entries of an account
func (h *LedgerHandler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	limit, err := parseLimit(c, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Get(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.store.History(ctx, id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// parseLimit reads ?limit=, clamping to max
func parseLimit(c *gin.Context, def, max int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, apperrors.Validation("limit must be a positive integer")
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}
