package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/device"
	"github.com/GitHubKaan/gju-jobs-api/internal/transport/http/middleware"
	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

// SessionHandler exposes the passwordless login, redemption, recovery, and
// deletion endpoints.
type SessionHandler struct {
	sessions *usecase.SessionService
	faults   *usecase.FaultService
	// echoCodes embeds the plaintext one-time code in login responses.
	// Enabled outside production only, for frontend development and tests.
	echoCodes bool
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessions *usecase.SessionService, faults *usecase.FaultService, echoCodes bool) *SessionHandler {
	return &SessionHandler{sessions: sessions, faults: faults, echoCodes: echoCodes}
}

// Login handles POST /{kind}/login. On success the auth token travels in the
// Authentication header and the body carries its human-readable expiry.
func (h *SessionHandler) Login(kind domain.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "email")
			return
		}

		issued, code, err := h.sessions.Login(c.Request.Context(), kind, req.Email)
		if err != nil {
			respondError(c, h.faults, err)
			return
		}

		c.Header("Authentication", "Bearer "+issued.Token)

		resp := LoginResponse{
			Description: "Verification code sent",
			Expires:     issued.Expires,
		}
		if h.echoCodes {
			resp.AuthCode = code
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Redeem handles POST /{kind}/login/code behind the auth-token guard. On
// success the access token travels in the Authorization header.
func (h *SessionHandler) Redeem(c *gin.Context) {
	payload, ok := middleware.Principal(c)
	rawToken, okToken := middleware.RawToken(c)
	if !ok || !okToken {
		respondError(c, h.faults, usecase.ErrUnauthorized)
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "authCode")
		return
	}

	info := device.FromUserAgent(c.Request.UserAgent())

	issued, err := h.sessions.RedeemCode(c.Request.Context(), payload, rawToken, req.AuthCode, info)
	if err != nil {
		respondError(c, h.faults, err)
		return
	}

	c.Header("Authorization", "Bearer "+issued.Token)
	c.JSON(http.StatusOK, RedeemResponse{
		Description: "Login successful",
		Expires:     issued.Expires,
	})
}

// RequestRecovery handles POST /{kind}/recovery.
func (h *SessionHandler) RequestRecovery(kind domain.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RecoveryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "email")
			return
		}

		if err := h.sessions.RequestRecovery(c.Request.Context(), kind, req.Email); err != nil {
			respondError(c, h.faults, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Description: "Recovery link sent"})
	}
}

// Recover handles POST /{kind}/recovery/confirm behind the recovery-token
// guard.
func (h *SessionHandler) Recover(c *gin.Context) {
	payload, ok := middleware.Principal(c)
	rawToken, okToken := middleware.RawToken(c)
	if !ok || !okToken {
		respondError(c, h.faults, usecase.ErrUnauthorized)
		return
	}

	if err := h.sessions.Recover(c.Request.Context(), payload, rawToken); err != nil {
		respondError(c, h.faults, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Description: "Account recovered, all sessions signed out"})
}

// RequestDeletion handles POST /{kind}/deletion behind the access-token
// guard.
func (h *SessionHandler) RequestDeletion(c *gin.Context) {
	payload, ok := middleware.Principal(c)
	if !ok {
		respondError(c, h.faults, usecase.ErrUnauthorized)
		return
	}

	if err := h.sessions.RequestDeletion(c.Request.Context(), payload.UserType, payload.UserUUID); err != nil {
		respondError(c, h.faults, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Description: "Deletion link sent"})
}

// Delete handles DELETE /{kind}/deletion/confirm behind the deletion-token
// guard.
func (h *SessionHandler) Delete(c *gin.Context) {
	payload, ok := middleware.Principal(c)
	rawToken, okToken := middleware.RawToken(c)
	if !ok || !okToken {
		respondError(c, h.faults, usecase.ErrUnauthorized)
		return
	}

	if err := h.sessions.DeleteAccount(c.Request.Context(), payload, rawToken); err != nil {
		respondError(c, h.faults, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Description: "Account deleted"})
}
