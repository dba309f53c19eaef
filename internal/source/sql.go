package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// SQLSource reads demand records from a local SQL database instead of the
// scraped upstream, for deployments that mirror the demand tables.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource wraps an open database handle. The handle stays owned by
// the caller.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

const partitionQuerySQL = `
SELECT dvsn, sttn, demand_no, demand_date, demand_time,
       cnsr, cnsg, cmdt, tt, pc, via, rake_cmdt, dstn,
       indented_type, indented_unts, indented_8w,
       otsg_unts, otsg_8w, supplied_unts, zone
FROM demand_records
WHERE zone = ? AND query_type = ?
ORDER BY demand_date`

// FetchPartition queries one (zone, query type) slice of the demand table.
func (s *SQLSource) FetchPartition(ctx context.Context, zone, queryType string) ([]model.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, partitionQuerySQL, zone, queryType)
	if err != nil {
		return nil, fmt.Errorf("demand query failed for %s/%s: %w", zone, queryType, err)
	}
	defer rows.Close()

	var records []model.RawRecord
	for rows.Next() {
		var r model.RawRecord
		if err := rows.Scan(
			&r.Division, &r.Station, &r.DemandNumber, &r.DemandDate, &r.DemandTime,
			&r.Consignor, &r.Consignee, &r.Commodity, &r.TrafficType, &r.PriorityCode,
			&r.Via, &r.RakeCommodity, &r.Destination,
			&r.IndentType, &r.IndentUnits, &r.Indent8W,
			&r.OutstandingUnits, &r.Outstanding8W, &r.SuppliedUnits, &r.Zone,
		); err != nil {
			return nil, fmt.Errorf("demand row scan failed: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
