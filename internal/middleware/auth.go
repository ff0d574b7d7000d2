package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/httputil"
	"github.com/jwalitptl/intake-api/pkg/security"
)

const (
	HeaderAdminPasskey = "X-Admin-Passkey"
	ContextAdmin       = "admin"
)

type AuthMiddleware struct {
	verifier security.PasskeyVerifier
}

// NewAuthMiddleware guards admin routes. A nil verifier rejects every
// request, which is what happens when no admin passkey is configured.
func NewAuthMiddleware(verifier security.PasskeyVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAdmin checks the passkey header against the configured passkey
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.Verify(c.GetHeader(HeaderAdminPasskey)); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		c.Set(ContextAdmin, true)
		c.Next()
	}
}

// Verify reports an Unauthorized error unless passkey matches.
func (m *AuthMiddleware) Verify(passkey string) error {
	if m.verifier == nil {
		return errors.Unauthorized("admin access is not configured")
	}
	if passkey == "" {
		return errors.Unauthorized("admin passkey is required")
	}
	if err := m.verifier.Verify(passkey); err != nil {
		return errors.Unauthorized("invalid admin passkey")
	}
	return nil
}
