package ops

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/store"
)

// EvictionReport aggregates the per-domain outcomes of one batch eviction.
type EvictionReport struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration_ns"`
	Outcomes  []DomainOutcome `json:"outcomes"`
	Deleted   int             `json:"deleted"`
	Failed    int             `json:"failed"`
}

// Domains returns the evicted domains in input order.
func (r *EvictionReport) Domains() []string {
	out := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Domain
	}
	return out
}

// DeleteDomains evicts every cookie of each domain. Domains are processed
// concurrently and the call returns once all of them finished. Eviction is
// best-effort: a failing domain does not stop or roll back the others.
// Repeated domains are evicted once and reported once, in first-occurrence
// order. An empty domain list makes no host calls.
func DeleteDomains(ctx context.Context, st store.Store, domains []string) *EvictionReport {
	domains = uniqueDomains(domains)
	report := &EvictionReport{
		ID:        newReportID(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]DomainOutcome, len(domains)),
	}
	if len(domains) == 0 {
		return report
	}

	var wg sync.WaitGroup
	for i, domain := range domains {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Outcomes[i] = DeleteCookiesForDomain(ctx, st, domain)
		}()
	}
	wg.Wait()

	for _, o := range report.Outcomes {
		report.Deleted += o.Deleted
		if o.Failed() {
			report.Failed++
		}
	}
	report.Duration = time.Since(report.StartedAt)
	return report
}

func uniqueDomains(domains []string) []string {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// CleanDomains trims a user-supplied domain selection, drops blanks and
// duplicates, and keeps first-occurrence order.
func CleanDomains(domains []string) ([]string, error) {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	if len(out) == 0 && len(domains) > 0 {
		return nil, errors.NewInvalidRequest("domains must not be blank")
	}
	return out, nil
}

// DeleteAll evicts every domain currently in the inventory.
func DeleteAll(ctx context.Context, st store.Store) (*EvictionReport, error) {
	rows, err := LoadInventory(ctx, st)
	if err != nil {
		return nil, err
	}
	domains := make([]string, len(rows))
	for i, r := range rows {
		domains[i] = r.Domain
	}
	return DeleteDomains(ctx, st, domains), nil
}

func newReportID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
