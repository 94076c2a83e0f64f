package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/pkg/logger"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Unknown errors become 500 and are logged
// with their cause; the client only sees a generic message.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)
	if appErr.Status >= 500 {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message, // Backward compatibility
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
