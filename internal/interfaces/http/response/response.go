package response

import (
	"github.com/gin-gonic/gin"

	domainerrors "accounts.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error renders err through the domain error mapping. Unknown errors become a generic 500.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
	})
}

// Abort renders err and stops the handler chain
func Abort(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)
	c.AbortWithStatusJSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
	})
}

// ValidationError sends a 400 carrying per-field binding messages
func ValidationError(c *gin.Context, details map[string]string) {
	appErr := domainerrors.BadRequest("Invalid input")
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
		"details": details,
	})
}
