package pipeline

import (
	"strings"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/pkg/utils"
)

// Normalize maps one raw row into the canonical record shape. The second
// return value is false for rows that must be dropped: upstream appends
// "TOTAL" summary rows per division that are not individual demands.
func Normalize(raw model.RawRecord, queryType, zone string) (model.CanonicalRecord, bool) {
	division := strings.TrimSpace(raw.Division)
	rowZone := strings.TrimSpace(raw.Zone)
	if strings.EqualFold(division, model.TotalSentinel) || strings.EqualFold(rowZone, model.TotalSentinel) {
		return model.CanonicalRecord{}, false
	}

	rec := model.CanonicalRecord{
		Division:      division,
		Station:       strings.TrimSpace(raw.Station),
		DemandNumber:  strings.TrimSpace(raw.DemandNumber),
		DemandDate:    strings.TrimSpace(raw.DemandDate),
		DemandTime:    strings.TrimSpace(raw.DemandTime),
		Consignor:     strings.TrimSpace(raw.Consignor),
		Consignee:     strings.TrimSpace(raw.Consignee),
		Commodity:     strings.TrimSpace(raw.Commodity),
		TrafficType:   strings.TrimSpace(raw.TrafficType),
		PriorityCode:  strings.TrimSpace(raw.PriorityCode),
		Via:           strings.TrimSpace(raw.Via),
		RakeCommodity: strings.TrimSpace(raw.RakeCommodity),
		Destination:   strings.TrimSpace(raw.Destination),
		IndentType:    strings.TrimSpace(raw.IndentType),
		QueryType:     queryType,
	}

	// Zone preference: row zone, then the partition's zone, then division.
	switch {
	case rowZone != "":
		rec.Zone = rowZone
	case zone != "":
		rec.Zone = zone
	default:
		rec.Zone = division
	}

	// A date that fails to parse leaves date/month/year nil; the row
	// still flows into the record set.
	if parsed := utils.ParseDemandDate(rec.DemandDate); parsed != nil {
		rec.ParsedDate = parsed
		month := int(parsed.Month()) - 1
		year := parsed.Year()
		rec.Month = &month
		rec.Year = &year
	}

	// Unit preference: indent counts for matured rows, outstanding counts
	// otherwise. Parse failures count as zero.
	rec.RakeUnits = utils.ParseUnits(raw.IndentUnits)
	if rec.RakeUnits == 0 {
		rec.RakeUnits = utils.ParseUnits(raw.OutstandingUnits)
	}
	rec.EightWheelers = utils.ParseUnits(raw.Indent8W)
	if rec.EightWheelers == 0 {
		rec.EightWheelers = utils.ParseUnits(raw.Outstanding8W)
	}

	return rec, true
}

// NormalizeAll maps a partition's raw rows, dropping summary rows.
func NormalizeAll(raws []model.RawRecord, queryType, zone string) []model.CanonicalRecord {
	records := make([]model.CanonicalRecord, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := Normalize(raw, queryType, zone); ok {
			records = append(records, rec)
		}
	}
	return records
}
