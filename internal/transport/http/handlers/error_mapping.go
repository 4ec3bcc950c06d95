package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

// respondError maps usecase errors onto the wire contract. Anything outside
// the known sentinels counts as an internal fault: it is recorded and only
// the reference identifier leaves the server.
func respondError(c *gin.Context, faults *usecase.FaultService, err error) {
	var cooldownErr *usecase.CooldownError
	if errors.As(err, &cooldownErr) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Description:      "Too many requests",
			RemainingSeconds: cooldownErr.RemainingSeconds,
		})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Description: "Authentication failed"})
	case errors.Is(err, usecase.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Description: "Account not found", Label: "email"})
	case errors.Is(err, usecase.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, ErrorResponse{Description: "Email already registered", Label: "email"})
	case errors.Is(err, usecase.ErrAttemptsExhausted):
		c.JSON(http.StatusConflict, ErrorResponse{Description: "Verification attempts exhausted, request a new code"})
	default:
		var faultUUID string
		if faults != nil {
			faultUUID = faults.Record(c.Request.Context(), err, true)
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Description: "Internal server error",
			ErrorUUID:   faultUUID,
		})
	}
}

func respondBadRequest(c *gin.Context, label string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Description: "Invalid request payload", Label: label})
}
