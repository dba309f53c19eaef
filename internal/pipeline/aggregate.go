package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/pkg/utils"
)

// Default truncation limits for the top-N reducers. Callers override them
// per request; routes get a wider default because the dashboard shows a
// longer route table.
const (
	DefaultTopN      = 10
	DefaultRouteTopN = 12
)

// UnknownKey is the fallback bucket for records missing a group field.
const UnknownKey = "Unknown"

// Bucket is one group of an aggregation: a key with its demand count and
// summed rake units.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	Units int    `json:"units"`
}

// MonthBucket groups demands by year and month (month is 0-11).
type MonthBucket struct {
	Key   string `json:"key"` // "2025-03" style, month 1-based for display
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Count int    `json:"count"`
	Units int    `json:"units"`
}

// DivisionBucket extends Bucket with the derived average units per order,
// rounded to the nearest integer.
type DivisionBucket struct {
	Key      string `json:"key"`
	Count    int    `json:"count"`
	Units    int    `json:"units"`
	AvgUnits int    `json:"avg_units"`
}

// HourBucket counts demands registered in one hour of the day.
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// All reducers are pure: they never mutate their input and the same input
// always yields the same buckets in the same order. Ties on the ranking
// key are broken by first-encountered input order (stable sort), a
// documented policy since the group keys themselves are unordered.

func fallback(v string) string {
	if v == "" {
		return UnknownKey
	}
	return v
}

// accumulate folds records into buckets keyed by keyOf, preserving
// first-encounter order. An empty keyOf result lands in the Unknown bucket.
func accumulate(records []model.CanonicalRecord, keyOf func(model.CanonicalRecord) string) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, rec := range records {
		key := fallback(keyOf(rec))
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].Count++
		buckets[i].Units += rec.RakeUnits
	}
	return buckets
}

func sortByCountDesc(buckets []Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
}

func truncate(buckets []Bucket, limit, fallbackLimit int) []Bucket {
	if limit <= 0 {
		limit = fallbackLimit
	}
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

// ByMonth groups demands chronologically by year and month. Records with
// no parsed date have no defined month and are excluded.
func ByMonth(records []model.CanonicalRecord) []MonthBucket {
	index := make(map[string]int)
	buckets := make([]MonthBucket, 0)
	for _, rec := range records {
		if rec.Year == nil || rec.Month == nil {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", *rec.Year, *rec.Month+1)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, MonthBucket{Key: key, Year: *rec.Year, Month: *rec.Month})
		}
		buckets[i].Count++
		buckets[i].Units += rec.RakeUnits
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Month < buckets[j].Month
	})
	return buckets
}

// ByCommodity groups by commodity, falling back to the rake commodity for
// rows where the primary commodity is blank. Descending order count.
func ByCommodity(records []model.CanonicalRecord) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string {
		if rec.Commodity != "" {
			return rec.Commodity
		}
		return rec.RakeCommodity
	})
	sortByCountDesc(buckets)
	return buckets
}

// TopConsignors returns the limit heaviest consignors by order count.
func TopConsignors(records []model.CanonicalRecord, limit int) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.Consignor })
	sortByCountDesc(buckets)
	return truncate(buckets, limit, DefaultTopN)
}

// TopDestinations returns the limit busiest destinations by shipment count.
func TopDestinations(records []model.CanonicalRecord, limit int) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.Destination })
	sortByCountDesc(buckets)
	return truncate(buckets, limit, DefaultTopN)
}

// ByZone groups by railway zone, descending order count.
func ByZone(records []model.CanonicalRecord) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.Zone })
	sortByCountDesc(buckets)
	return buckets
}

// ByRakeType groups by indent type and ranks by summed units, truncated.
func ByRakeType(records []model.CanonicalRecord, limit int) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.IndentType })
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Units > buckets[j].Units
	})
	return truncate(buckets, limit, DefaultTopN)
}

// ByDivision groups by division with the derived rounded average units per
// order. AvgUnits is 0 when a bucket somehow has no orders.
func ByDivision(records []model.CanonicalRecord) []DivisionBucket {
	base := accumulate(records, func(rec model.CanonicalRecord) string { return rec.Division })
	sortByCountDesc(base)

	buckets := make([]DivisionBucket, len(base))
	for i, b := range base {
		avg := 0
		if b.Count > 0 {
			avg = int(float64(b.Units)/float64(b.Count) + 0.5)
		}
		buckets[i] = DivisionBucket{Key: b.Key, Count: b.Count, Units: b.Units, AvgUnits: avg}
	}
	return buckets
}

// ConsigneeAnalysis returns the limit heaviest consignees by order count.
func ConsigneeAnalysis(records []model.CanonicalRecord, limit int) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.Consignee })
	sortByCountDesc(buckets)
	return truncate(buckets, limit, DefaultTopN)
}

// ByQueryType groups by the source query-type tag, descending count.
func ByQueryType(records []model.CanonicalRecord) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.QueryType })
	sortByCountDesc(buckets)
	return buckets
}

// ByPriorityCode groups by priority code, descending count.
func ByPriorityCode(records []model.CanonicalRecord) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string { return rec.PriorityCode })
	sortByCountDesc(buckets)
	return buckets
}

// TimeOfDay counts demands per hour of registration. All 24 hours are
// pre-seeded so the dashboard always gets a full day, ascending by hour.
// Rows whose demand time cannot be read contribute to no bucket.
func TimeOfDay(records []model.CanonicalRecord) []HourBucket {
	buckets := make([]HourBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, rec := range records {
		if h := hourOf(rec); h >= 0 {
			buckets[h].Count++
		}
	}
	return buckets
}

func hourOf(rec model.CanonicalRecord) int {
	if h := utils.ParseHour(rec.DemandTime); h >= 0 {
		return h
	}
	// demand dates often embed the time ("02-01-2006 15:04")
	if i := strings.IndexByte(rec.DemandDate, ' '); i > 0 {
		return utils.ParseHour(rec.DemandDate[i+1:])
	}
	return -1
}

// RouteAnalysis groups by "origin → destination", descending shipment count.
func RouteAnalysis(records []model.CanonicalRecord, limit int) []Bucket {
	buckets := accumulate(records, func(rec model.CanonicalRecord) string {
		return fallback(rec.Station) + " → " + fallback(rec.Destination)
	})
	sortByCountDesc(buckets)
	return truncate(buckets, limit, DefaultRouteTopN)
}
