package handlers

import (
	"net/http"

	"github.com/clawearning/backend/internal/services/actions"
	"github.com/gin-gonic/gin"
)

// ActionHandler accepts action descriptors from transport collaborators
type ActionHandler struct {
	dispatcher *actions.Dispatcher
}

// NewActionHandler creates a new action handler
func NewActionHandler(dispatcher *actions.Dispatcher) *ActionHandler {
	return &ActionHandler{dispatcher: dispatcher}
}

// Dispatch runs one action. Declined actions are still a 200; only error
// results map to 503 so the caller knows a retry may help.
func (h *ActionHandler) Dispatch(c *gin.Context) {
	var action actions.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		badRequest(c, err)
		return
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), action)

	status := http.StatusOK
	if result.Status == actions.StatusError {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
