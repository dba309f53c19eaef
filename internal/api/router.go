package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/SouptikDatta/railways-intelligence/internal/api/handler"
	"github.com/SouptikDatta/railways-intelligence/pkg/router"
)

// RegisterRoutes mounts the dashboard API and the swagger UI.
func RegisterRoutes(r *router.Router, runs *handler.RunManager) {
	r.POST("/api/v1/runs", runs.StartRun)
	r.GET("/api/v1/runs", runs.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/status", runs.GetRunStatus)
	r.GET("/api/v1/runs/*/progress", runs.GetProgress)
	r.GET("/api/v1/runs/*/errors", runs.GetRunErrors)
	r.GET("/api/v1/runs/*/records", runs.GetRecords)
	r.GET("/api/v1/runs/*/aggregations/*", runs.GetAggregation)
	r.GET("/api/v1/runs/*/summary", runs.GetSummary)
	r.PATCH("/api/v1/runs/*/cancel", runs.CancelRun)
	r.POST("/api/v1/runs/*/refresh", runs.RefreshRun)
	// Generic run route last
	r.GET("/api/v1/runs/*", runs.GetRun)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
