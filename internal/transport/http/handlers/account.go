package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/transport/http/middleware"
	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

// AccountHandler exposes registration and profile retrieval.
type AccountHandler struct {
	accounts  *usecase.AccountService
	faults    *usecase.FaultService
	echoCodes bool
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService, faults *usecase.FaultService, echoCodes bool) *AccountHandler {
	return &AccountHandler{accounts: accounts, faults: faults, echoCodes: echoCodes}
}

// SignupStudent handles POST /student/signup.
func (h *AccountHandler) SignupStudent(c *gin.Context) {
	var req SignupStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email")
		return
	}

	issued, code, err := h.accounts.SignupStudent(c.Request.Context(), usecase.SignupStudentInput{
		Email:     req.Email,
		GivenName: req.GivenName,
		Surname:   req.Surname,
	})
	if err != nil {
		respondError(c, h.faults, err)
		return
	}

	h.respondSignedUp(c, issued, code)
}

// SignupCompany handles POST /company/signup.
func (h *AccountHandler) SignupCompany(c *gin.Context) {
	var req SignupCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email")
		return
	}

	issued, code, err := h.accounts.SignupCompany(c.Request.Context(), usecase.SignupCompanyInput{
		Email:       req.Email,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		respondError(c, h.faults, err)
		return
	}

	h.respondSignedUp(c, issued, code)
}

// Get handles GET /user behind the access-token guard.
func (h *AccountHandler) Get(c *gin.Context) {
	payload, ok := middleware.Principal(c)
	if !ok {
		respondError(c, h.faults, usecase.ErrUnauthorized)
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), payload.UserType, payload.UserUUID)
	if err != nil {
		respondError(c, h.faults, err)
		return
	}

	c.JSON(http.StatusOK, newAccountResponse(payload.UserType, account))
}

func (h *AccountHandler) respondSignedUp(c *gin.Context, issued *domain.IssuedToken, code string) {
	c.Header("Authentication", "Bearer "+issued.Token)

	resp := LoginResponse{
		Description: "Account created, verification code sent",
		Expires:     issued.Expires,
	}
	if h.echoCodes {
		resp.AuthCode = code
	}

	c.JSON(http.StatusCreated, resp)
}
