package rest

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseUintQuery parses an optional non-negative integer query parameter
func parseUintQuery(c *gin.Context, name string, fallback uint64) (uint64, error) {
	value := c.Query(name)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return parsed, nil
}

// parseAmountParam parses a base-10 amount that was already validated by
// the request DTO
func parseAmountParam(value string) (*big.Int, bool) {
	return new(big.Int).SetString(value, 10)
}
