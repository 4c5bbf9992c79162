package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams is the page window extracted from a request.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads the page and limit query parameters. A missing,
// non-positive or over-limit page size falls back to defaultSize.
func GetPaginationParams(c echo.Context, defaultSize, maxSize int) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxSize {
		pageSize = defaultSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}
