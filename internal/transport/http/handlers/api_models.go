package handlers

import (
	"time"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

// ErrorResponse is the single error payload shape. Label points at the form
// field that caused the rejection, RemainingSeconds accompanies cooldown
// rejections, and ErrorUUID references a recorded internal fault.
type ErrorResponse struct {
	Description      string `json:"description"`
	Label            string `json:"label,omitempty"`
	RemainingSeconds int64  `json:"remainingSeconds,omitempty"`
	ErrorUUID        string `json:"errorUUID,omitempty"`
}

// MessageResponse is a plain confirmation payload.
type MessageResponse struct {
	Description string `json:"description"`
}

// LoginRequest starts a passwordless login.
type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginResponse accompanies the auth token set in the Authentication header.
// AuthCode is only populated outside production.
type LoginResponse struct {
	Description string `json:"description"`
	Expires     string `json:"expires"`
	AuthCode    string `json:"authCode,omitempty"`
}

// RedeemRequest carries the mailed one-time code.
type RedeemRequest struct {
	AuthCode string `json:"authCode" binding:"required"`
}

// RedeemResponse accompanies the access token set in the Authorization header.
type RedeemResponse struct {
	Description string `json:"description"`
	Expires     string `json:"expires"`
}

// SignupStudentRequest registers a student account.
type SignupStudentRequest struct {
	Email     string `json:"email" binding:"required,email"`
	GivenName string `json:"givenName" binding:"required"`
	Surname   string `json:"surname" binding:"required"`
}

// SignupCompanyRequest registers a company account.
type SignupCompanyRequest struct {
	Email       string `json:"email" binding:"required,email"`
	CompanyName string `json:"companyName" binding:"required"`
}

// RecoveryRequest asks for a recovery link by mail.
type RecoveryRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AccountResponse is the profile view returned to authenticated accounts.
type AccountResponse struct {
	UserUUID    string    `json:"userUUID"`
	UserType    string    `json:"userType"`
	Email       string    `json:"email"`
	GivenName   *string   `json:"givenName,omitempty"`
	Surname     *string   `json:"surname,omitempty"`
	CompanyName *string   `json:"companyName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FrontendErrorRequest reports a client-side failure for the fault ledger.
type FrontendErrorRequest struct {
	Cause any `json:"cause" binding:"required"`
}

// FrontendErrorResponse returns the recorded fault reference.
type FrontendErrorResponse struct {
	ErrorUUID string `json:"errorUUID"`
}

func newAccountResponse(kind domain.UserType, account *domain.Account) AccountResponse {
	return AccountResponse{
		UserUUID:    account.UserUUID,
		UserType:    string(kind),
		Email:       account.Email,
		GivenName:   account.GivenName,
		Surname:     account.Surname,
		CompanyName: account.CompanyName,
		CreatedAt:   account.CreatedAt,
	}
}
