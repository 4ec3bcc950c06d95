package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

// FaultHandler accepts client-side error reports.
type FaultHandler struct {
	faults *usecase.FaultService
}

// NewFaultHandler constructs a FaultHandler.
func NewFaultHandler(faults *usecase.FaultService) *FaultHandler {
	return &FaultHandler{faults: faults}
}

// Report handles POST /frontend-error. The cause lands in the fault ledger
// like a backend fault, flagged as frontend-originated.
func (h *FaultHandler) Report(c *gin.Context) {
	var req FrontendErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "cause")
		return
	}

	faultUUID := h.faults.Record(c.Request.Context(), req.Cause, false)

	c.JSON(http.StatusOK, FrontendErrorResponse{ErrorUUID: faultUUID})
}
