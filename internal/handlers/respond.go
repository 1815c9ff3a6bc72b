package handlers

import (
	"github.com/clawearning/backend/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// respondError writes err with the status its kind maps to. Internal causes
// are never exposed.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{
		"error":  apperrors.MessageOf(err),
		"reason": apperrors.ReasonOf(err),
	})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apperrors.Validation("invalid request: %v", err))
}
