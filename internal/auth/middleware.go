package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const identityKey = "auth.identity"

// ErrorWriter renders a rejected request. The api package supplies one so
// 401 bodies share the common error shape.
type ErrorWriter func(c *gin.Context, status int, message string)

func defaultErrorWriter(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"statusCode": status,
		"error":      message,
		"path":       c.Request.URL.Path,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// RequireIdentity aborts with 401 unless the request carries a valid
// bearer token.
func (i *Issuer) RequireIdentity(write ErrorWriter) gin.HandlerFunc {
	if write == nil {
		write = defaultErrorWriter
	}
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			write(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		identity, err := i.Parse(raw)
		if err != nil {
			write(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalIdentity attaches the caller when a valid token is present and
// otherwise lets the request through anonymously.
func (i *Issuer) OptionalIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if identity, err := i.Parse(raw); err == nil {
				c.Set(identityKey, identity)
			}
		}
		c.Next()
	}
}

// IdentityFrom returns the caller set by one of the middlewares.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
