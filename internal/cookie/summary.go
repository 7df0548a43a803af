package cookie

// DomainSummary is one inventory row. It is rebuilt on every load and never persisted.
type DomainSummary struct {
	// Domain is unique within one inventory snapshot
	Domain string `json:"domain"`

	// Count is the number of records returned by the per-domain query
	Count int `json:"count"`

	// IsSecure is the Secure flag of the first record in the per-domain result
	IsSecure bool `json:"is_secure"`

	// IsPersistent is the negated Session flag of that same first record
	IsPersistent bool `json:"is_persistent"`

	// Cookies is the per-domain result in host order
	Cookies []Record `json:"cookies,omitempty"`
}

// Summarize builds the row for domain from its per-domain query result.
// The boolean flags come from the first record only. ok is false for an
// empty result, which yields no row.
func Summarize(domain string, records []Record) (s DomainSummary, ok bool) {
	if len(records) == 0 {
		return DomainSummary{}, false
	}
	first := records[0]
	return DomainSummary{
		Domain:       domain,
		Count:        len(records),
		IsSecure:     first.Secure,
		IsPersistent: !first.Session,
		Cookies:      records,
	}, true
}

// WithoutCookies returns a copy of s with the cookie list stripped.
func (s DomainSummary) WithoutCookies() DomainSummary {
	s.Cookies = nil
	return s
}

// DistinctDomains returns the domain of each record once, in order of first occurrence.
func DistinctDomains(records []Record) []string {
	seen := make(map[string]bool, len(records))
	domains := make([]string, 0)
	for _, r := range records {
		if seen[r.Domain] {
			continue
		}
		seen[r.Domain] = true
		domains = append(domains, r.Domain)
	}
	return domains
}
