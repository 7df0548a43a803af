package ops

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/store"
)

// LoadInventory builds one DomainSummary per distinct domain, in the order the
// host first returns each domain. It issues one list-all query, then one query
// per domain.
//
// A nil store or an unreachable one yields an empty inventory. A failing
// per-domain query aborts the load.
func LoadInventory(ctx context.Context, st store.Store) ([]cookie.DomainSummary, error) {
	if st == nil {
		return []cookie.DomainSummary{}, nil
	}

	all, err := st.List(ctx, cookie.Filter{})
	if stderrors.Is(err, store.ErrUnavailable) {
		return []cookie.DomainSummary{}, nil
	}
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("list cookies: %w", err))
	}

	rows := make([]cookie.DomainSummary, 0)
	for _, domain := range cookie.DistinctDomains(all) {
		records, err := st.List(ctx, cookie.Filter{Domain: domain})
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("list cookies for %s: %w", domain, err))
		}
		// The domain may have emptied between the two queries.
		if row, ok := cookie.Summarize(domain, records); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// InventoryInput contains parameters for the Inventory operation.
type InventoryInput struct {
	DomainContains string // optional case-insensitive substring filter
	SortBy         string // domain (default) or count
	Order          string // asc (default) or desc
	Limit          int    // default: 25, max: 500
	Offset         int    // default: 0
	IncludeCookies bool
}

// InventoryOutput contains the result of the Inventory operation.
type InventoryOutput struct {
	Items        []cookie.DomainSummary `json:"items"`
	Pagination   Pagination             `json:"pagination"`
	Sort         string                 `json:"sort"`
	TotalCookies int                    `json:"total_cookies"`
}

// Inventory loads the per-domain summaries, then filters, sorts and paginates them.
func Inventory(ctx context.Context, st store.Store, input InventoryInput) (*InventoryOutput, error) {
	sortBy, order, err := validateSort(input.SortBy, input.Order)
	if err != nil {
		return nil, err
	}

	rows, err := LoadInventory(ctx, st)
	if err != nil {
		return nil, err
	}

	if needle := strings.ToLower(strings.TrimSpace(input.DomainContains)); needle != "" {
		rows = slices.DeleteFunc(rows, func(r cookie.DomainSummary) bool {
			return !strings.Contains(strings.ToLower(r.Domain), needle)
		})
	}

	SortSummaries(rows, sortBy, order)

	totalCookies := 0
	for _, r := range rows {
		totalCookies += r.Count
	}

	page, start, end := paginate(input.Limit, input.Offset, len(rows), DefaultInventoryLimit, MaxInventoryLimit)
	items := slices.Clone(rows[start:end])
	if !input.IncludeCookies {
		for i := range items {
			items[i] = items[i].WithoutCookies()
		}
	}
	if items == nil {
		items = []cookie.DomainSummary{}
	}

	return &InventoryOutput{
		Items:        items,
		Pagination:   page,
		Sort:         sortBy + "_" + order,
		TotalCookies: totalCookies,
	}, nil
}

func validateSort(sortBy, order string) (string, string, error) {
	sortBy = strings.ToLower(strings.TrimSpace(sortBy))
	order = strings.ToLower(strings.TrimSpace(order))
	if sortBy == "" {
		sortBy = SortByDomain
	}
	if order == "" {
		order = OrderAsc
	}
	if sortBy != SortByDomain && sortBy != SortByCount {
		return "", "", errors.NewInvalidRequest(fmt.Sprintf("sort must be %q or %q, got %q", SortByDomain, SortByCount, sortBy))
	}
	if order != OrderAsc && order != OrderDesc {
		return "", "", errors.NewInvalidRequest(fmt.Sprintf("order must be %q or %q, got %q", OrderAsc, OrderDesc, order))
	}
	return sortBy, order, nil
}

// SortSummaries stable-sorts rows in place. The descending comparator puts
// b < a first; ascending is its negation. Equal keys keep load order.
func SortSummaries(rows []cookie.DomainSummary, sortBy, order string) {
	desc := func(a, b cookie.DomainSummary) int {
		if sortBy == SortByCount {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(b.Domain, a.Domain)
	}
	less := desc
	if order != OrderDesc {
		less = func(a, b cookie.DomainSummary) int { return -desc(a, b) }
	}
	slices.SortStableFunc(rows, less)
}
