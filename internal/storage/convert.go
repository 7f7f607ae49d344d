package storage

import (
	"fmt"
	"time"

	"finanze/internal/core"
)

// SQLite has no native date/time types; dates are stored as YYYY-MM-DD and
// timestamps as RFC 3339 strings so they sort lexicographically.

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

func fmtDate(d core.Date) string {
	return d.Format(dateLayout)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// scanAudit decodes the four audit columns shared by every table.
func scanAudit(createBy int64, createDate string, updateBy int64, updateDate string) (core.Audit, error) {
	cd, err := parseTime(createDate)
	if err != nil {
		return core.Audit{}, err
	}
	ud, err := parseTime(updateDate)
	if err != nil {
		return core.Audit{}, err
	}
	return core.Audit{CreateBy: createBy, CreateDate: cd, UpdateBy: updateBy, UpdateDate: ud}, nil
}
