// ABOUTME: Pagination envelope and list query parameters
// ABOUTME: Shared by every list endpoint of the REST backend

package models

import (
	"net/url"
	"sort"
	"strconv"
)

// Pagination describes the position of a page within a result set
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether a page follows this one
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether a page precedes this one
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// Page is a paginated list of records
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ListParams are the query parameters accepted by list endpoints
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

// reservedParams are set from the ListParams fields and cannot be overridden by filters
var reservedParams = map[string]bool{"page": true, "limit": true, "search": true}

// Values encodes the parameters as a query string, omitting zero values
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if reservedParams[k] {
			continue
		}
		if p.Filters[k] != "" {
			v.Set(k, p.Filters[k])
		}
	}
	return v
}

// Paginate computes the pagination block for total items at page/limit.
// Page and limit are clamped to at least 1.
func Paginate(page, limit, total int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	pages := (total + limit - 1) / limit
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
