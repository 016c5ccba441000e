package api

import (
	"swa-yield-pipeline/internal/api/handler"
	"swa-yield-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/runs", handler.CreateRun)
	r.GET("/api/v1/runs", handler.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/errors", handler.GetRunErrors)
	r.GET("/api/v1/runs/*/results", handler.GetRunResults)
	r.GET("/api/v1/runs/*/exclusions", handler.GetRunExclusions)
	r.GET("/api/v1/runs/*/progress", handler.GetRunProgress)
	// Generic run route last
	r.GET("/api/v1/runs/*", handler.GetRun)
}
