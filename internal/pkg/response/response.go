package response

import (
	"errors"
	"net/http"

	"museumbooking/internal/domain"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Order matters: the first kind matched by errors.Is wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrPastBooking, http.StatusUnprocessableEntity, "PAST_BOOKING"},
	{domain.ErrOutOfHours, http.StatusUnprocessableEntity, "OUT_OF_HOURS"},
	{domain.ErrInvalidSlotGrid, http.StatusUnprocessableEntity, "INVALID_SLOT"},
	{domain.ErrSlotFull, http.StatusConflict, "SLOT_FULL"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidTokenState, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
}

// FromError writes the envelope for a service error. Unknown and storage errors become 503/500
// without leaking their text.
func FromError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			Error(c, m.status, m.code, err.Error())
			return
		}
	}

	// Logged by middleware.ErrorLogger.
	_ = c.Error(err)
	if errors.Is(err, domain.ErrUnavailable) {
		Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Storage is temporarily unavailable")
		return
	}
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
