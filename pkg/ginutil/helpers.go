package ginutil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt extracts an integer from query parameters with default value
func QueryInt(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// Pagination reads ?page= and ?limit=. page falls back to 1, limit to
// defaultLimit when missing or outside 1..maxLimit.
func Pagination(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page = QueryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = QueryInt(c, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}

// ParamPositiveInt extracts a path parameter that must be an integer >= 1
func ParamPositiveInt(c *gin.Context, key string) (int, error) {
	value, err := strconv.Atoi(c.Param(key))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, value)
	}
	return value, nil
}
