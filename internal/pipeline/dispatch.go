package pipeline

import (
	"fmt"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// Reducer names accepted by Aggregate. These are the dashboard's chart
// identifiers.
const (
	ReducerByMonth        = "by-month"
	ReducerByCommodity    = "by-commodity"
	ReducerTopConsignors  = "top-consignors"
	ReducerTopDestination = "top-destinations"
	ReducerByZone         = "by-zone"
	ReducerByRakeType     = "by-rake-type"
	ReducerByDivision     = "by-division"
	ReducerConsignees     = "consignee-analysis"
	ReducerByQueryType    = "by-query-type"
	ReducerTimeOfDay      = "time-of-day"
	ReducerByPriority     = "by-priority-code"
	ReducerRoutes         = "route-analysis"
	ReducerSummary        = "summary"
)

// Aggregate runs the named reducer over records. Limit only applies to the
// top-N reducers; zero means the reducer default.
func Aggregate(records []model.CanonicalRecord, name string, limit int) (interface{}, error) {
	switch name {
	case ReducerByMonth:
		return ByMonth(records), nil
	case ReducerByCommodity:
		return ByCommodity(records), nil
	case ReducerTopConsignors:
		return TopConsignors(records, limit), nil
	case ReducerTopDestination:
		return TopDestinations(records, limit), nil
	case ReducerByZone:
		return ByZone(records), nil
	case ReducerByRakeType:
		return ByRakeType(records, limit), nil
	case ReducerByDivision:
		return ByDivision(records), nil
	case ReducerConsignees:
		return ConsigneeAnalysis(records, limit), nil
	case ReducerByQueryType:
		return ByQueryType(records), nil
	case ReducerTimeOfDay:
		return TimeOfDay(records), nil
	case ReducerByPriority:
		return ByPriorityCode(records), nil
	case ReducerRoutes:
		return RouteAnalysis(records, limit), nil
	case ReducerSummary:
		return SummaryStats(records), nil
	default:
		return nil, fmt.Errorf("unknown reducer: %s", name)
	}
}
