package model

import "time"

// QueryType identifies which upstream demand table a record came from.
const (
	QueryOutstandingDemand = "outstanding-demand"
	QueryMaturedIndent     = "matured-indent"
	QueryRegisteredDemand  = "registered-demand"
)

// Zones is the fixed set of railway zone codes used to partition upstream queries.
var Zones = []string{
	"CR", "ER", "ECR", "ECoR", "NR", "NCR", "NER", "NFR", "NWR",
	"SR", "SCR", "SER", "SECR", "SWR", "WR", "WCR",
}

// QueryTypes is the fixed set of upstream query categories; a default run
// fetches every one of them.
var QueryTypes = []string{QueryOutstandingDemand, QueryMaturedIndent, QueryRegisteredDemand}

// TotalSentinel marks upstream summary rows that must never reach the record set.
const TotalSentinel = "TOTAL"

// RawRecord is a source-specific row as returned by a record source.
// It is the superset of the outstanding-demand and matured-indent schemas;
// unit fields stay strings because upstream emits them unpadded, blank or dashed.
type RawRecord struct {
	Division         string `json:"DVSN"`
	Station          string `json:"STTN"`
	DemandNumber     string `json:"DEMAND_NO"`
	DemandDate       string `json:"DEMAND_DATE"`
	DemandTime       string `json:"DEMAND_TIME"`
	Consignor        string `json:"CNSR"`
	Consignee        string `json:"CNSG"`
	Commodity        string `json:"CMDT"`
	TrafficType      string `json:"TT"`
	PriorityCode     string `json:"PC"`
	Via              string `json:"VIA"`
	RakeCommodity    string `json:"RAKE_CMDT"`
	Destination      string `json:"DSTN"`
	IndentType       string `json:"INDENTED_TYPE"`
	IndentUnits      string `json:"INDENTED_UNTS"`
	Indent8W         string `json:"INDENTED_8W"`
	OutstandingUnits string `json:"OTSG_UNTS"`
	Outstanding8W    string `json:"OTSG_8W"`
	SuppliedUnits    string `json:"SUPPLIED_UNTS"`
	Zone             string `json:"ZONE"`
}

// CanonicalRecord is the normalized shape every raw row is mapped into.
// Created once at fetch time and treated as immutable afterwards; the
// dashboard recomputes every view from the in-memory record set.
type CanonicalRecord struct {
	Division      string `json:"division"`
	Station       string `json:"station"`
	DemandNumber  string `json:"demand_number"`
	DemandDate    string `json:"demand_date"`
	DemandTime    string `json:"demand_time"`
	Consignor     string `json:"consignor"`
	Consignee     string `json:"consignee"`
	Commodity     string `json:"commodity"`
	TrafficType   string `json:"traffic_type"`
	PriorityCode  string `json:"priority_code"`
	Via           string `json:"via"`
	RakeCommodity string `json:"rake_commodity"`
	Destination   string `json:"destination"`
	IndentType    string `json:"indent_type"`

	// Zone falls back to Division when the source row carries no zone.
	Zone      string `json:"zone"`
	QueryType string `json:"query_type"`

	// Derived fields. ParsedDate, Month and Year are nil when the demand
	// date could not be parsed; Month is 0-11.
	ParsedDate    *time.Time `json:"parsed_date,omitempty"`
	Month         *int       `json:"month,omitempty"`
	Year          *int       `json:"year,omitempty"`
	RakeUnits     int        `json:"rake_units"`
	EightWheelers int        `json:"eight_wheelers"`
}

// PartitionKey identifies one (zone, query type) unit of fetch work.
type PartitionKey struct {
	Zone      string `json:"zone"`
	QueryType string `json:"query_type"`
}

func (k PartitionKey) String() string {
	return k.Zone + "/" + k.QueryType
}
