package handlers

import (
	"net/http"

	"github.com/clawearning/backend/internal/services/accounts"
	"github.com/clawearning/backend/internal/services/withdrawal"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles account lifecycle and payout requests
type AccountHandler struct {
	accounts   *accounts.Manager
	withdrawal *withdrawal.Authorizer
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *accounts.Manager, withdrawal *withdrawal.Authorizer) *AccountHandler {
	return &AccountHandler{accounts: accounts, withdrawal: withdrawal}
}

// CreateAccount creates an account on first contact. Repeat calls return
// the existing record with 200 instead of 201.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var input struct {
		AccountID  string `json:"accountId" binding:"required"`
		ReferrerID string `json:"referrerId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.accounts.Create(c.Request.Context(), input.AccountID, input.ReferrerID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"account":         result.Account,
		"created":         result.Created,
		"referralApplied": result.ReferralApplied,
		"referralLink":    h.accounts.ReferralLink(result.Account.ID),
	})
}

// GetAccount returns the full account snapshot
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// SetPayoutDestination stores the account's payout address
func (h *AccountHandler) SetPayoutDestination(c *gin.Context) {
	var input struct {
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.withdrawal.SetPayoutDestination(c.Request.Context(), c.Param("id"), input.Destination)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// Withdraw authorizes a withdrawal of the applicable minimum
func (h *AccountHandler) Withdraw(c *gin.Context) {
	result, err := h.withdrawal.Withdraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"accountId":   result.Account.ID,
		"amount":      result.Amount,
		"destination": result.Destination,
		"balance":     result.Account.Balance,
	})
}
