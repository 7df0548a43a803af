package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/store"
)

// ListInput contains parameters for the ListDomain operation.
type ListInput struct {
	Domain string // required, matched exactly
	Limit  int    // default: 50, max: 500
	Offset int    // default: 0
}

// ListOutput contains the result of the ListDomain operation.
type ListOutput struct {
	Domain     string          `json:"domain"`
	Items      []cookie.Record `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

// ListDomain returns the cookies of one domain in host order.
func ListDomain(ctx context.Context, st store.Store, input ListInput) (*ListOutput, error) {
	domain, err := normalizeDomain(input.Domain)
	if err != nil {
		return nil, err
	}

	var records []cookie.Record
	if st != nil {
		records, err = st.List(ctx, cookie.Filter{Domain: domain})
		if err != nil && !stderrors.Is(err, store.ErrUnavailable) {
			return nil, errors.NewInternal(fmt.Errorf("list cookies for %s: %w", domain, err))
		}
	}

	page, start, end := paginate(input.Limit, input.Offset, len(records), DefaultListLimit, MaxListLimit)
	items := slices.Clone(records[start:end])
	if items == nil {
		items = []cookie.Record{}
	}

	return &ListOutput{
		Domain:     domain,
		Items:      items,
		Pagination: page,
	}, nil
}
