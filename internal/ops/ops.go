package ops

import (
	"strings"

	"github.com/hpungsan/crumbs/internal/errors"
)

// Pagination limits
const (
	DefaultInventoryLimit = 25
	MaxInventoryLimit     = 500
	DefaultListLimit      = 50
	MaxListLimit          = 500
)

// Sort keys and orders for the inventory table.
const (
	SortByDomain = "domain"
	SortByCount  = "count"
	OrderAsc     = "asc"
	OrderDesc    = "desc"
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate clamps limit and offset and returns the page bounds for total items.
func paginate(limit, offset, total, defaultLimit, maxLimit int) (Pagination, int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = max(offset, 0)

	start := min(offset, total)
	end := min(start+limit, total)
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}, start, end
}

// normalizeDomain trims a user-supplied domain. The leading dot is kept: it
// distinguishes a domain cookie from a host-only one.
func normalizeDomain(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", errors.NewInvalidRequest("domain is required")
	}
	return d, nil
}
