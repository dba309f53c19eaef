package pipeline

import (
	"strings"
	"time"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// FilterAll is the criteria value meaning "no filter on this key".
const FilterAll = "ALL"

// Criteria holds the dashboard's exact-match filters. Empty or "ALL"
// values are no-ops; set keys compose with logical AND. Month is nil when
// unset, otherwise 0-11.
type Criteria struct {
	Zone      string `json:"zone,omitempty"`
	Month     *int   `json:"month,omitempty"`
	QueryType string `json:"query_type,omitempty"`
	Commodity string `json:"commodity,omitempty"`
}

func active(v string) bool {
	return v != "" && !strings.EqualFold(v, FilterAll)
}

// Apply returns the records matching every set criterion. The commodity
// filter matches either the primary commodity or the rake commodity.
func Apply(records []model.CanonicalRecord, c Criteria) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if active(c.Zone) && rec.Zone != c.Zone {
			continue
		}
		if c.Month != nil && (rec.Month == nil || *rec.Month != *c.Month) {
			continue
		}
		if active(c.QueryType) && rec.QueryType != c.QueryType {
			continue
		}
		if active(c.Commodity) && rec.Commodity != c.Commodity && rec.RakeCommodity != c.Commodity {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ApplyDateRange keeps records whose parsed demand date falls in [from, to]
// inclusive. Records with no parsed date are excluded while a range filter
// is active.
func ApplyDateRange(records []model.CanonicalRecord, from, to time.Time) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if rec.ParsedDate == nil {
			continue
		}
		d := *rec.ParsedDate
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
