package httputil

import (
	"engage-predict/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// RespondStatus aborts with {"error": msg}.
func RespondStatus(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// RespondError maps err through its apperror kind. Errors without a kind
// become a generic 500 so internal details never reach the client.
func RespondError(c *gin.Context, err error) {
	RespondStatus(c, apperror.StatusOf(err), apperror.MessageOf(err))
}
