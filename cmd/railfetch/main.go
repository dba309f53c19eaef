package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SouptikDatta/railways-intelligence/internal/config"
	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/internal/pipeline"
	"github.com/SouptikDatta/railways-intelligence/internal/source"
	"github.com/SouptikDatta/railways-intelligence/internal/store"
)

func main() {
	zonesFlag := flag.String("zones", "", "comma-separated zone codes (default all)")
	queryTypesFlag := flag.String("query-types", "", "comma-separated query types (default all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zones := model.Zones
	if *zonesFlag != "" {
		zones = strings.Split(*zonesFlag, ",")
	}
	queryTypes := model.QueryTypes
	if *queryTypesFlag != "" {
		queryTypes = strings.Split(*queryTypesFlag, ",")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	var src pipeline.RecordSource
	switch cfg.SourceType {
	case config.SourceSQL:
		src = source.NewSQLSource(st.DB())
	default:
		src = source.NewAPISource(cfg.UpstreamURL, cfg.RequestTimeout())
	}

	// Ctrl-C cancels cooperatively: in-flight partitions finish their own
	// cancellation check, nothing new starts.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := pipeline.NewScheduler(src, pipeline.NewPartitionCache(), cfg.Fetch)
	result, err := scheduler.Run(ctx, "", zones, queryTypes, func(ev model.ProgressEvent) {
		if ev.ErrorMessage != "" {
			fmt.Printf("❌ [%3d%%] %s/%s: %s\n", ev.Percentage, ev.CurrentZone, ev.CurrentQueryType, ev.ErrorMessage)
			return
		}
		fmt.Printf("📦 [%3d%%] %s/%s: %d records (%d/%d partitions)\n",
			ev.Percentage, ev.CurrentZone, ev.CurrentQueryType, ev.RecordsFetched, ev.Completed, ev.Total)
	})
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	if err := st.SaveRun(result.RunID, zones, queryTypes); err == nil {
		st.FinishRun(result)
	}

	summary := pipeline.SummaryStats(result.Records)
	fmt.Printf("\n📊 Summary (%s)\n", result.Status)
	fmt.Printf("   Orders:        %d\n", summary.TotalOrders)
	fmt.Printf("   Units:         %d\n", summary.TotalUnits)
	fmt.Printf("   Avg units:     %.2f\n", summary.AvgUnitsPerOrder)
	fmt.Printf("   Consignors:    %d\n", summary.DistinctConsignors)
	fmt.Printf("   Destinations:  %d\n", summary.DistinctDestinations)
	fmt.Printf("   Commodities:   %d\n", summary.DistinctCommodities)
	fmt.Printf("   Zones:         %d\n", summary.DistinctZones)

	fmt.Println("\n🏆 Top commodities:")
	for _, b := range pipeline.ByCommodity(result.Records) {
		fmt.Printf("   %-20s %6d orders %8d units\n", b.Key, b.Count, b.Units)
	}

	if result.Status == model.StatusFailed {
		os.Exit(1)
	}
}
