package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwaldron/tennisiq/pkg/utils"
)

// parseDateParam reads a YYYY-MM-DD query parameter, defaulting to today.
// On bad input it writes the validation error and returns ok=false.
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC(), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		utils.SendValidationError(c, "Invalid "+name+" parameter", "expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func parseIntParam(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		utils.SendValidationError(c, "Invalid "+name+" parameter", "expected a non-negative integer")
		return 0, false
	}
	return value, true
}
