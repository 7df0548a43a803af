package cookie

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is a read-only view of one cookie owned by the host cookie store.
// (StoreID, Domain, Name, Path) identifies a record at a point in time.
type Record struct {
	// Domain is the cookie domain as the host stores it; a leading dot marks a domain cookie
	Domain string `json:"domain"`

	// Path is the cookie path
	Path string `json:"path"`

	// Name is the cookie name
	Name string `json:"name"`

	// Value is the cookie value (empty when the host keeps it encrypted)
	Value string `json:"value"`

	Secure   bool `json:"secure"`
	HTTPOnly bool `json:"httpOnly"`
	HostOnly bool `json:"hostOnly"`

	// Session is true when the cookie expires with the browsing session
	Session bool `json:"session"`

	// ExpirationDate is seconds since the Unix epoch; nil for session cookies
	ExpirationDate *float64 `json:"expirationDate,omitempty"`

	// StoreID is the host's opaque partition or container identifier
	StoreID string `json:"storeId"`
}

// Key is the deletion key of a record.
type Key struct {
	StoreID string
	Domain  string
	Name    string
	Path    string
}

// Key returns the tuple that identifies r within its host store.
func (r Record) Key() Key {
	return Key{StoreID: r.StoreID, Domain: r.Domain, Name: r.Name, Path: r.Path}
}

// URL reconstructs the effective URL of the cookie: scheme from the Secure flag,
// then the domain verbatim and the path.
func (r Record) URL() string {
	scheme := "http:"
	if r.Secure {
		scheme = "https:"
	}
	return scheme + "//" + r.Domain + r.Path
}

// RemoveQuery builds the host removal request for r.
func (r Record) RemoveQuery() RemoveQuery {
	return RemoveQuery{URL: r.URL(), Name: r.Name, StoreID: r.StoreID}
}

// Expires returns the expiration time, or the zero time for session cookies.
func (r Record) Expires() time.Time {
	if r.ExpirationDate == nil {
		return time.Time{}
	}
	sec, frac := math.Modf(*r.ExpirationDate)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// String implements fmt.Stringer for log output.
func (r Record) String() string {
	return fmt.Sprintf("%s %s%s [%s]", r.Name, r.Domain, r.Path, r.StoreID)
}

// RemoveQuery asks the host to remove one cookie.
type RemoveQuery struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	StoreID string `json:"storeId"`
}

// Matches reports whether q addresses r. The URL must rebuild to the same
// domain and path; its scheme is not compared.
func (q RemoveQuery) Matches(r Record) bool {
	if q.Name != r.Name || q.StoreID != r.StoreID {
		return false
	}
	_, domain, path, err := ParseRemoveURL(q.URL)
	if err != nil {
		return false
	}
	return domain == r.Domain && path == r.Path
}

// Filter narrows a List call. An empty Domain selects every cookie; otherwise
// only records whose Domain equals it exactly (leading dot included).
type Filter struct {
	Domain string
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	return f.Domain == "" || f.Domain == r.Domain
}

// ParseRemoveURL splits a removal URL built by Record.URL back into its parts.
// The domain runs up to the first slash and the rest is the path, kept
// verbatim: no percent-decoding, and '?' or '#' stay part of it. The leading
// dot of a domain cookie survives the round trip.
func ParseRemoveURL(raw string) (secure bool, domain, path string, err error) {
	rest, ok := strings.CutPrefix(raw, "https://")
	if ok {
		secure = true
	} else if rest, ok = strings.CutPrefix(raw, "http://"); !ok {
		return false, "", "", fmt.Errorf("parse removal url: unsupported scheme in %q", raw)
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		domain, path = rest[:i], rest[i:]
	} else {
		domain = rest
	}
	if domain == "" {
		return false, "", "", fmt.Errorf("parse removal url: missing host in %q", raw)
	}
	return secure, domain, path, nil
}
