package middleware

import (
	"net/http"
	"strings"

	"engage-predict/pkg/httputil"
	"engage-predict/pkg/identity"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextName   = "name"
	ContextUser   = "user"
)

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the
// verified caller in the gin context.
func AuthMiddleware(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			httputil.RespondStatus(c, http.StatusUnauthorized, "No token provided")
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			httputil.RespondStatus(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(ContextUserID, user.UID)
		c.Set(ContextEmail, user.Email)
		c.Set(ContextName, user.Name)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// CurrentUser returns the caller stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*identity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*identity.User)
	return user, ok
}
