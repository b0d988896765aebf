package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type PaginationParams struct {
	Page  int
	Limit int
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Limit      int         `json:"limit"`
	NextCursor string      `json:"next_cursor,omitempty"`
	Count      int         `json:"count,omitempty"`
	Page       int         `json:"page,omitempty"`
	Total      int64       `json:"total,omitempty"`
}

// ParsePagination extracts page-based pagination params from query string
func ParsePagination(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

// ParseCursor extracts cursor-based pagination params from query string.
// Cursors are provider tokens and passed through opaque.
func ParseCursor(c *gin.Context) (string, int) {
	cursor := c.Query("cursor")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	return cursor, limit
}
