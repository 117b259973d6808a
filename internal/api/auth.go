package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soni-790/storefront-api/internal/domain/auth"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// HashToken computes the HMAC-SHA256 of a bearer token under the given
// pepper, hex encoded. Sessions store only this hash, never the raw token.
func HashToken(token string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthRequired authenticates a request from its Authorization bearer token.
// The token's HMAC-SHA256 hash is looked up in the session repository; the
// resolved identity is stored on the context for handlers. Missing or unknown
// tokens are rejected with 401.
func AuthRequired(sessions auth.Repository, pepper []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		mac := hmac.New(sha256.New, pepper)
		mac.Write([]byte(token))
		hash := mac.Sum(nil)

		session, err := sessions.FindByTokenHash(c.Request.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		// Constant-time comparison guards against timing side-channels in
		// case the repository returns a stale or wrong row.
		stored, err := hex.DecodeString(session.TokenHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		c.Set(identityKey, auth.Identity{UserID: session.UserID, Role: session.Role})
		c.Next()
	}
}

// identityFrom returns the authenticated identity set by AuthRequired.
func identityFrom(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	ident, _ := v.(auth.Identity)
	return ident
}
