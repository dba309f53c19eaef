package pipeline

import (
	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/pkg/utils"
)

// Summary holds the single-pass overall statistics for a record set.
type Summary struct {
	TotalOrders          int     `json:"total_orders"`
	TotalUnits           int     `json:"total_units"`
	AvgUnitsPerOrder     float64 `json:"avg_units_per_order"`
	DistinctConsignors   int     `json:"distinct_consignors"`
	DistinctConsignees   int     `json:"distinct_consignees"`
	DistinctDestinations int     `json:"distinct_destinations"`
	DistinctCommodities  int     `json:"distinct_commodities"`
	DistinctDivisions    int     `json:"distinct_divisions"`
	DistinctZones        int     `json:"distinct_zones"`
}

// SummaryStats computes overall totals and distinct counts in one pass.
// The commodity distinct count treats a blank commodity as its rake
// commodity, matching the ByCommodity grouping rule. Average units per
// order is rounded to two decimals and 0 for an empty input.
func SummaryStats(records []model.CanonicalRecord) Summary {
	consignors := make(map[string]struct{})
	consignees := make(map[string]struct{})
	destinations := make(map[string]struct{})
	commodities := make(map[string]struct{})
	divisions := make(map[string]struct{})
	zones := make(map[string]struct{})

	totalUnits := 0
	for _, rec := range records {
		totalUnits += rec.RakeUnits
		if rec.Consignor != "" {
			consignors[rec.Consignor] = struct{}{}
		}
		if rec.Consignee != "" {
			consignees[rec.Consignee] = struct{}{}
		}
		if rec.Destination != "" {
			destinations[rec.Destination] = struct{}{}
		}
		switch {
		case rec.Commodity != "":
			commodities[rec.Commodity] = struct{}{}
		case rec.RakeCommodity != "":
			commodities[rec.RakeCommodity] = struct{}{}
		}
		if rec.Division != "" {
			divisions[rec.Division] = struct{}{}
		}
		if rec.Zone != "" {
			zones[rec.Zone] = struct{}{}
		}
	}

	s := Summary{
		TotalOrders:          len(records),
		TotalUnits:           totalUnits,
		DistinctConsignors:   len(consignors),
		DistinctConsignees:   len(consignees),
		DistinctDestinations: len(destinations),
		DistinctCommodities:  len(commodities),
		DistinctDivisions:    len(divisions),
		DistinctZones:        len(zones),
	}
	if len(records) > 0 {
		s.AvgUnitsPerOrder = utils.Round2(float64(totalUnits) / float64(len(records)))
	}
	return s
}
