package main

import (
	"log"

	"github.com/SouptikDatta/railways-intelligence/internal/api"
	"github.com/SouptikDatta/railways-intelligence/internal/api/handler"
	"github.com/SouptikDatta/railways-intelligence/internal/config"
	"github.com/SouptikDatta/railways-intelligence/internal/pipeline"
	"github.com/SouptikDatta/railways-intelligence/internal/source"
	"github.com/SouptikDatta/railways-intelligence/internal/store"
	"github.com/SouptikDatta/railways-intelligence/pkg/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
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

	scheduler := pipeline.NewScheduler(src, pipeline.NewPartitionCache(), cfg.Fetch)
	runs := handler.NewRunManager(scheduler, st)

	r := router.New()
	api.RegisterRoutes(r, runs)
	r.Start(cfg.ListenAddr)
}
