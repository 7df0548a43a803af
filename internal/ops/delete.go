package ops

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/store"
)

// Outcome messages.
const (
	MsgNoCookies     = "No cookies found"
	msgDeletedFormat = "Deleted %d cookie(s)."
	msgUnexpectedFmt = "Unexpected error: %s"
)

// DomainOutcome is the result of evicting one domain. It is always produced;
// failures are described, never returned. Found is the number of cookies the
// domain held and the count the message reports; Deleted counts removals the
// host confirmed.
type DomainOutcome struct {
	Domain  string `json:"domain"`
	Found   int    `json:"found"`
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether a host call failed for this domain.
func (o DomainOutcome) Failed() bool { return o.Err != nil }

// DeleteCookiesForDomain removes every cookie of domain. All removals start
// concurrently and the call waits for every one of them. A domain without
// cookies is not an error and makes no removal calls.
func DeleteCookiesForDomain(ctx context.Context, st store.Store, domain string) DomainOutcome {
	out := DomainOutcome{Domain: domain}
	if st == nil {
		return out.fail(store.ErrUnavailable)
	}

	records, err := st.List(ctx, cookie.Filter{Domain: domain})
	if err != nil {
		return out.fail(err)
	}
	out.Found = len(records)
	if len(records) == 0 {
		out.Message = MsgNoCookies
		return out
	}

	// Removals share no state; each writes its own slot.
	removed := make([]bool, len(records))
	var g errgroup.Group
	for i, rec := range records {
		g.Go(func() error {
			r, err := st.Remove(ctx, rec.RemoveQuery())
			if err != nil {
				return fmt.Errorf("remove %s: %w", rec.Name, err)
			}
			removed[i] = r != nil
			return nil
		})
	}
	err = g.Wait()

	for _, ok := range removed {
		if ok {
			out.Deleted++
		}
	}
	if err != nil {
		return out.fail(err)
	}

	out.Message = fmt.Sprintf(msgDeletedFormat, len(records))
	return out
}

func (o DomainOutcome) fail(err error) DomainOutcome {
	o.Err = err
	o.Error = err.Error()
	o.Message = fmt.Sprintf(msgUnexpectedFmt, err.Error())
	return o
}
