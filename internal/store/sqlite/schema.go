package sqlite

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/hpungsan/crumbs/internal/cookie"
)

// chromiumEpochDiffMicros is the offset between 1601-01-01 and 1970-01-01 in microseconds.
const chromiumEpochDiffMicros = int64(11644473600000000)

// Firefox expiry values above this are milliseconds rather than seconds.
const firefoxMillisThreshold = int64(1e12)

const (
	firefoxDefaultStore   = "firefox-default"
	firefoxContainerStore = "firefox-container-"
	chromiumDefaultStore  = "0"
)

var userContextRe = regexp.MustCompile(`^\^userContextId=(\d+)$`)

type rowScanner interface {
	Scan(dest ...any) error
}

// schema maps one dialect's table onto cookie.Record.
type schema struct {
	dialect        Dialect
	table          string
	hostCol        string
	expiryCol      string
	secureCol      string
	httpOnlyCol    string
	persistentExpr string
	partitionExpr  string
}

func loadSchema(ctx context.Context, db *sql.DB, dialect Dialect) (schema, error) {
	switch dialect {
	case DialectFirefox:
		cols, err := tableColumns(ctx, db, "moz_cookies")
		if err != nil {
			return schema{}, err
		}
		s := schema{
			dialect:        dialect,
			table:          "moz_cookies",
			hostCol:        "host",
			expiryCol:      "expiry",
			secureCol:      "isSecure",
			httpOnlyCol:    "isHttpOnly",
			persistentExpr: "1",
			partitionExpr:  "''",
		}
		if cols["originAttributes"] {
			s.partitionExpr = "COALESCE(originAttributes, '')"
		}
		return s, nil
	default:
		cols, err := tableColumns(ctx, db, "cookies")
		if err != nil {
			return schema{}, err
		}
		s := schema{
			dialect:        DialectChromium,
			table:          "cookies",
			hostCol:        "host_key",
			expiryCol:      "expires_utc",
			secureCol:      "is_secure",
			httpOnlyCol:    "is_httponly",
			persistentExpr: "1",
			partitionExpr:  "''",
		}
		if cols["is_persistent"] {
			s.persistentExpr = "is_persistent"
		} else if cols["has_expires"] {
			s.persistentExpr = "has_expires"
		}
		if cols["top_frame_site_key"] {
			s.partitionExpr = "COALESCE(top_frame_site_key, '')"
		}
		return s, nil
	}
}

func (s schema) columns() string {
	return strings.Join([]string{
		s.hostCol, "name", "COALESCE(value, '')", "path", s.expiryCol,
		s.secureCol, s.httpOnlyCol, s.persistentExpr, s.partitionExpr,
	}, ", ")
}

func (s schema) selectSQL() string {
	return "SELECT " + s.columns() + " FROM " + s.table
}

func (s schema) scan(row rowScanner) (cookie.Record, error) {
	var (
		rec        cookie.Record
		expiry     sql.NullInt64
		secure     sql.NullInt64
		httpOnly   sql.NullInt64
		persistent sql.NullInt64
		partition  string
	)
	if err := row.Scan(&rec.Domain, &rec.Name, &rec.Value, &rec.Path, &expiry,
		&secure, &httpOnly, &persistent, &partition); err != nil {
		return cookie.Record{}, err
	}

	rec.Secure = secure.Valid && secure.Int64 == 1
	rec.HTTPOnly = httpOnly.Valid && httpOnly.Int64 == 1
	rec.HostOnly = !strings.HasPrefix(rec.Domain, ".")

	switch s.dialect {
	case DialectFirefox:
		// Firefox keeps session cookies in memory, so every row on disk is persistent.
		rec.Session = false
		if expiry.Valid {
			rec.ExpirationDate = firefoxExpiry(expiry.Int64)
		}
		rec.StoreID = firefoxStoreID(partition)
	default:
		rec.Session = persistent.Valid && persistent.Int64 == 0
		if !rec.Session && expiry.Valid {
			rec.ExpirationDate = chromiumExpiry(expiry.Int64)
		}
		rec.StoreID = chromiumStoreID(partition)
	}
	return rec, nil
}

// partitionFor maps a record StoreID back to the raw partition column value.
func (s schema) partitionFor(storeID string) string {
	if s.dialect == DialectFirefox {
		switch {
		case storeID == firefoxDefaultStore:
			return ""
		case strings.HasPrefix(storeID, firefoxContainerStore):
			return "^userContextId=" + strings.TrimPrefix(storeID, firefoxContainerStore)
		default:
			return storeID
		}
	}
	if storeID == chromiumDefaultStore {
		return ""
	}
	return storeID
}

func firefoxStoreID(originAttributes string) string {
	if originAttributes == "" {
		return firefoxDefaultStore
	}
	if m := userContextRe.FindStringSubmatch(originAttributes); m != nil {
		return firefoxContainerStore + m[1]
	}
	return originAttributes
}

func chromiumStoreID(topFrameSiteKey string) string {
	if topFrameSiteKey == "" {
		return chromiumDefaultStore
	}
	return topFrameSiteKey
}

func firefoxExpiry(v int64) *float64 {
	if v <= 0 {
		return nil
	}
	f := float64(v)
	if v > firefoxMillisThreshold {
		f /= 1000
	}
	return &f
}

func chromiumExpiry(expiresUTC int64) *float64 {
	unixMicros := expiresUTC - chromiumEpochDiffMicros
	if unixMicros <= 0 {
		return nil
	}
	f := float64(unixMicros) / 1e6
	return &f
}
