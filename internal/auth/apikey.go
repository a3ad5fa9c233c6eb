package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	keyHeader     = "X-API-Key"
	accountHeader = "X-Account-ID"

	// AccountContextKey is the gin context key under which the
	// authenticated account id is stored.
	AccountContextKey = "account_id"
)

// APIKeyMiddleware validates the API key from the X-API-Key header and
// extracts the caller's account id from X-Account-ID (set by the upstream
// controller after session validation). If apiKey is empty, key checking is
// disabled but the account header is still required.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey != "" {
			provided := c.GetHeader(keyHeader)
			if provided == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "missing API key",
				})
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "invalid API key",
				})
				return
			}
		}

		accountID, err := uuid.Parse(c.GetHeader(accountHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or invalid account id",
			})
			return
		}
		c.Set(AccountContextKey, accountID)

		c.Next()
	}
}

// AccountID returns the authenticated account id from the gin context.
func AccountID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(AccountContextKey)
	if !ok {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
