package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

func demandRecord(mutate func(*model.CanonicalRecord)) model.CanonicalRecord {
	rec := model.CanonicalRecord{
		Division:     "BSL",
		Station:      "BSL",
		Consignor:    "NTPC",
		Consignee:    "GSECL",
		Commodity:    "COAL",
		PriorityCode: "A",
		Destination:  "KSNR",
		IndentType:   "BOXN",
		Zone:         "CR",
		QueryType:    model.QueryOutstandingDemand,
		RakeUnits:    1,
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}

func TestByCommodityFallsBackToRakeCommodity(t *testing.T) {
	records := []model.CanonicalRecord{
		demandRecord(nil),
		demandRecord(func(r *model.CanonicalRecord) {
			r.Commodity = ""
			r.RakeCommodity = "COAL"
		}),
	}

	buckets := ByCommodity(records)
	require.Len(t, buckets, 1)
	assert.Equal(t, "COAL", buckets[0].Key)
	assert.Equal(t, 2, buckets[0].Count)
}

func TestTopConsignorsLimitAndTieBreak(t *testing.T) {
	// order counts 5,3,3,2,1; ties keep first-encountered order
	counts := map[string]int{"A": 5, "B": 3, "C": 3, "D": 2, "E": 1}
	var records []model.CanonicalRecord
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		for i := 0; i < counts[name]; i++ {
			n := name
			records = append(records, demandRecord(func(r *model.CanonicalRecord) { r.Consignor = n }))
		}
	}

	buckets := TopConsignors(records, 2)
	require.Len(t, buckets, 2)
	assert.Equal(t, "A", buckets[0].Key)
	assert.Equal(t, 5, buckets[0].Count)
	assert.Equal(t, "B", buckets[1].Key)
	assert.Equal(t, 3, buckets[1].Count)
}

func TestReducerIdempotence(t *testing.T) {
	var records []model.CanonicalRecord
	for i := 0; i < 50; i++ {
		n := i
		records = append(records, demandRecord(func(r *model.CanonicalRecord) {
			r.Zone = []string{"CR", "ER", "NR"}[n%3]
			r.RakeUnits = n % 7
		}))
	}

	first := ByZone(records)
	second := ByZone(records)
	assert.Equal(t, first, second)
}

func TestByZoneCountsSumToInputLength(t *testing.T) {
	var records []model.CanonicalRecord
	for i := 0; i < 23; i++ {
		n := i
		records = append(records, demandRecord(func(r *model.CanonicalRecord) {
			if n%5 == 0 {
				r.Zone = "" // lands in the Unknown bucket
			} else {
				r.Zone = fmt.Sprintf("Z%d", n%4)
			}
		}))
	}

	sum := 0
	for _, b := range ByZone(records) {
		sum += b.Count
	}
	assert.Equal(t, len(records), sum)
}

func TestTimeOfDayAlwaysReturns24Buckets(t *testing.T) {
	buckets := TimeOfDay(nil)
	require.Len(t, buckets, 24)
	for h, b := range buckets {
		assert.Equal(t, h, b.Hour)
		assert.Zero(t, b.Count)
	}

	records := []model.CanonicalRecord{
		demandRecord(func(r *model.CanonicalRecord) { r.DemandTime = "09:30" }),
		demandRecord(func(r *model.CanonicalRecord) { r.DemandTime = "09:05" }),
		demandRecord(func(r *model.CanonicalRecord) { r.DemandDate = "02-01-2025 23:10" }),
		demandRecord(func(r *model.CanonicalRecord) { r.DemandTime = "garbage" }),
	}
	buckets = TimeOfDay(records)
	require.Len(t, buckets, 24)
	assert.Equal(t, 2, buckets[9].Count)
	assert.Equal(t, 1, buckets[23].Count)
}

func TestByDivisionAverageUnits(t *testing.T) {
	records := []model.CanonicalRecord{
		demandRecord(func(r *model.CanonicalRecord) { r.Division = "BSL"; r.RakeUnits = 3 }),
		demandRecord(func(r *model.CanonicalRecord) { r.Division = "BSL"; r.RakeUnits = 4 }),
		demandRecord(func(r *model.CanonicalRecord) { r.Division = "NGP"; r.RakeUnits = 10 }),
	}

	buckets := ByDivision(records)
	require.Len(t, buckets, 2)
	// BSL has more orders, sorts first
	assert.Equal(t, "BSL", buckets[0].Key)
	assert.Equal(t, 4, buckets[0].AvgUnits) // round(7/2)
	assert.Equal(t, "NGP", buckets[1].Key)
	assert.Equal(t, 10, buckets[1].AvgUnits)
}

func TestByMonthChronologicalAndSkipsUndated(t *testing.T) {
	records := []model.CanonicalRecord{
		demandRecord(func(r *model.CanonicalRecord) { r.Year = ptr(2025); r.Month = ptr(5) }),
		demandRecord(func(r *model.CanonicalRecord) { r.Year = ptr(2024); r.Month = ptr(11) }),
		demandRecord(func(r *model.CanonicalRecord) { r.Year = ptr(2025); r.Month = ptr(0) }),
		demandRecord(nil), // no parsed date
	}

	buckets := ByMonth(records)
	require.Len(t, buckets, 3)
	assert.Equal(t, "2024-12", buckets[0].Key)
	assert.Equal(t, "2025-01", buckets[1].Key)
	assert.Equal(t, "2025-06", buckets[2].Key)
}

func TestByRakeTypeRanksBySummedUnits(t *testing.T) {
	records := []model.CanonicalRecord{
		demandRecord(func(r *model.CanonicalRecord) { r.IndentType = "BOXN"; r.RakeUnits = 2 }),
		demandRecord(func(r *model.CanonicalRecord) { r.IndentType = "BCN"; r.RakeUnits = 9 }),
		demandRecord(func(r *model.CanonicalRecord) { r.IndentType = "BOXN"; r.RakeUnits = 3 }),
	}

	buckets := ByRakeType(records, 0)
	require.Len(t, buckets, 2)
	assert.Equal(t, "BCN", buckets[0].Key)
	assert.Equal(t, 9, buckets[0].Units)
	assert.Equal(t, "BOXN", buckets[1].Key)
	assert.Equal(t, 5, buckets[1].Units)
}

func TestRouteAnalysisKeyAndDefaultLimit(t *testing.T) {
	var records []model.CanonicalRecord
	for i := 0; i < 20; i++ {
		n := i
		records = append(records, demandRecord(func(r *model.CanonicalRecord) {
			r.Station = fmt.Sprintf("S%d", n)
			r.Destination = fmt.Sprintf("D%d", n)
		}))
	}

	buckets := RouteAnalysis(records, 0)
	assert.Len(t, buckets, DefaultRouteTopN)
	assert.Equal(t, "S0 → D0", buckets[0].Key)
}

func TestSummaryStats(t *testing.T) {
	records := []model.CanonicalRecord{
		demandRecord(func(r *model.CanonicalRecord) { r.RakeUnits = 2 }),
		demandRecord(func(r *model.CanonicalRecord) {
			r.RakeUnits = 3
			r.Consignor = "SAIL"
			r.Commodity = ""
			r.RakeCommodity = "IRON ORE"
		}),
		demandRecord(func(r *model.CanonicalRecord) { r.RakeUnits = 2; r.Zone = "ER" }),
	}

	s := SummaryStats(records)
	assert.Equal(t, 3, s.TotalOrders)
	assert.Equal(t, 7, s.TotalUnits)
	assert.InDelta(t, 2.33, s.AvgUnitsPerOrder, 0.001)
	assert.Equal(t, 2, s.DistinctConsignors)
	assert.Equal(t, 2, s.DistinctCommodities) // COAL + IRON ORE
	assert.Equal(t, 2, s.DistinctZones)

	empty := SummaryStats(nil)
	assert.Zero(t, empty.TotalOrders)
	assert.Zero(t, empty.AvgUnitsPerOrder)
}

func TestAggregateDispatch(t *testing.T) {
	records := []model.CanonicalRecord{demandRecord(nil)}

	for _, name := range []string{
		ReducerByMonth, ReducerByCommodity, ReducerTopConsignors,
		ReducerTopDestination, ReducerByZone, ReducerByRakeType,
		ReducerByDivision, ReducerConsignees, ReducerByQueryType,
		ReducerTimeOfDay, ReducerByPriority, ReducerRoutes, ReducerSummary,
	} {
		_, err := Aggregate(records, name, 0)
		assert.NoError(t, err, name)
	}

	_, err := Aggregate(records, "nope", 0)
	assert.Error(t, err)
}

func ptr(i int) *int { return &i }
