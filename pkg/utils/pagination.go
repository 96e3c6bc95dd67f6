package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageParams carries pagination and ordering query parameters
type PageParams struct {
	Page     int
	PageSize int
	Ordering string
}

// ParsePageParams reads page, page_size and ordering query parameters,
// falling back to the given default ordering
func ParsePageParams(c *gin.Context, defaultOrdering string) PageParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return PageParams{
		Page:     page,
		PageSize: pageSize,
		Ordering: c.DefaultQuery("ordering", defaultOrdering),
	}
}

// PaginatedResponse is the page envelope returned by list endpoints
type PaginatedResponse struct {
	Count    int64       `json:"count"`
	Next     *int        `json:"next"`
	Previous *int        `json:"previous"`
	Results  interface{} `json:"results"`
}

// OrderClause translates a comma-separated ordering value into a SQL ORDER BY
// clause. A leading '-' on a field means descending. Fields are resolved
// through the allowed map (exposed name -> column expression); unknown fields
// are ignored. Returns fallback when nothing valid remains.
func OrderClause(ordering string, allowed map[string]string, fallback string) string {
	var clauses []string
	for _, field := range strings.Split(ordering, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		name := strings.TrimPrefix(field, "-")
		column, ok := allowed[name]
		if !ok {
			continue
		}
		if desc {
			clauses = append(clauses, column+" DESC")
		} else {
			clauses = append(clauses, column+" ASC")
		}
	}
	if len(clauses) == 0 {
		return fallback
	}
	return strings.Join(clauses, ", ")
}

// Paginate counts the query, fetches one page into dest and wraps both in a
// PaginatedResponse with next/previous page numbers
func Paginate(tx *gorm.DB, params PageParams, dest interface{}) (*PaginatedResponse, error) {
	var count int64
	if err := tx.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, err
	}

	offset := (params.Page - 1) * params.PageSize
	if err := tx.Offset(offset).Limit(params.PageSize).Find(dest).Error; err != nil {
		return nil, err
	}

	resp := &PaginatedResponse{
		Count:   count,
		Results: dest,
	}
	if int64(offset+params.PageSize) < count {
		next := params.Page + 1
		resp.Next = &next
	}
	if params.Page > 1 {
		prev := params.Page - 1
		resp.Previous = &prev
	}
	return resp, nil
}
