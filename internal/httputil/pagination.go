package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Audit log listings page 50 records at a time and never more than 100.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// ParsePagination reads the offset and limit query parameters of a listing.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = ParseLimit(c, DefaultPageLimit, MaxPageLimit)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

// ParseLimit reads the limit query parameter, returning defaultLimit when it is
// absent. A maxLimit of zero leaves the upper bound to the caller.
func ParseLimit(c *gin.Context, defaultLimit, maxLimit int) (int, error) {
	limit, err := queryInt(c, "limit", defaultLimit)
	if maxLimit > 0 && (err != nil || limit < 1 || limit > maxLimit) {
		return 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}
	if err != nil || limit < 0 || (limit == 0 && c.Query("limit") != "") {
		return 0, fmt.Errorf("invalid limit parameter: must be a positive integer")
	}
	return limit, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
