package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusmatch/tools/errs"
	sec "campusmatch/tools/security"
)

// Context keys downstream handlers read.
const (
	CtxUserIDKey      = "userId"
	CtxDisplayNameKey = "displayName"
)

// Middleware verifies the bearer token on HTTP routes and stashes the
// identity into the gin context. Websocket handshakes verify separately
// because the token rides the query string there.
func Middleware(opts sec.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}

		id, err := sec.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrAuthentication)
			return
		}

		c.Set(CtxUserIDKey, id.UserID)
		c.Set(CtxDisplayNameKey, id.DisplayName)
		c.Next()
	}
}
