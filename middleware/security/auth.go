package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ideatoapp/chatgateway/tools/errs"
	sec "github.com/ideatoapp/chatgateway/tools/security"
)

// CtxUserIDKey is where the middleware parks the authenticated user ID.
const CtxUserIDKey = "authUserId"

// Middleware verifies a bearer token and puts the subject user ID into the
// gin context. Requests without a valid token never reach the handler.
func Middleware(opts sec.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
		userID, err := sec.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.AsCodeError(err))
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user ID set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
