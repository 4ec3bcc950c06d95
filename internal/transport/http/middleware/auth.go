package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/logger"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/security"
	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

const (
	principalKey = "auth.principal"
	rawTokenKey  = "auth.raw_token"

	// unauthorizedDescription is the single response text for every token
	// failure, so callers cannot probe which check rejected them.
	unauthorizedDescription = "Authentication failed"
)

type guardError struct {
	Description string `json:"description"`
	ErrorUUID   string `json:"errorUUID,omitempty"`
}

// TokenGuard validates purpose-scoped tokens and loads the authenticated
// principal into the request context.
type TokenGuard struct {
	keyring *security.Keyring
	stores  port.CredentialStoreSet
	ledger  port.RevocationLedger
	faults  *usecase.FaultService
}

// NewTokenGuard constructs the middleware helper.
func NewTokenGuard(keyring *security.Keyring, stores port.CredentialStoreSet, ledger port.RevocationLedger, faults *usecase.FaultService) *TokenGuard {
	return &TokenGuard{keyring: keyring, stores: stores, ledger: ledger, faults: faults}
}

// Require returns a middleware that accepts only tokens of the given purpose.
// The token must verify under the purpose's key, carry a live auth
// identifier, and not sit on the blacklist. Every failure maps to the same
// 401 shape.
func (g *TokenGuard) Require(purpose domain.TokenPurpose) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			g.reject(c)
			return
		}

		if err := g.keyring.Verify(raw, purpose); err != nil {
			g.reject(c)
			return
		}

		payload, err := g.keyring.DecodePayload(raw)
		if err != nil {
			g.reject(c)
			return
		}
		if payload.UserUUID == "" || payload.AuthUUID == "" || !payload.UserType.Valid() {
			g.reject(c)
			return
		}

		store := g.stores.ForKind(payload.UserType)
		if store == nil {
			g.reject(c)
			return
		}

		valid, err := store.IsValidAuthUUID(c.Request.Context(), payload.AuthUUID)
		if err != nil {
			g.fail(c, err)
			return
		}
		if !valid {
			g.reject(c)
			return
		}

		claimed, err := g.ledger.IsClaimed(c.Request.Context(), raw)
		if err != nil {
			g.fail(c, err)
			return
		}
		if claimed {
			g.reject(c)
			return
		}

		c.Set(principalKey, payload)
		c.Set(rawTokenKey, raw)

		c.Next()
	}
}

// RequireKind restricts an already authenticated route to one account kind.
func (g *TokenGuard) RequireKind(kind domain.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := Principal(c)
		if !ok || payload.UserType != kind {
			g.reject(c)
			return
		}
		c.Next()
	}
}

func (g *TokenGuard) reject(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, guardError{Description: unauthorizedDescription})
}

func (g *TokenGuard) fail(c *gin.Context, err error) {
	logger.WithContext(c.Request.Context()).Error("token guard backend failure", zap.Error(err))

	var faultUUID string
	if g.faults != nil {
		faultUUID = g.faults.Record(c.Request.Context(), err, true)
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, guardError{
		Description: "Internal server error",
		ErrorUUID:   faultUUID,
	})
}

// Principal returns the verified token payload stored by Require.
func Principal(c *gin.Context) (*domain.TokenPayload, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	payload, ok := value.(*domain.TokenPayload)
	return payload, ok
}

// RawToken returns the raw bearer token stored by Require.
func RawToken(c *gin.Context) (string, bool) {
	value, exists := c.Get(rawTokenKey)
	if !exists {
		return "", false
	}
	raw, ok := value.(string)
	return raw, ok
}

// bearerToken reads the token from the Authentication header, falling back to
// Authorization. Repeated "Bearer " prefixes are stripped case-insensitively,
// since clients echoing our response headers tend to stack them.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authentication")
	if header == "" {
		header = c.GetHeader("Authorization")
	}
	return stripBearer(header)
}

func stripBearer(header string) string {
	token := strings.TrimSpace(header)
	for len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
