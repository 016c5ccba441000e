package main

import (
	"flag"

	"swa-yield-pipeline/internal/api"
	"swa-yield-pipeline/internal/store"
	"swa-yield-pipeline/pkg/router"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "analysis.db", "sqlite database path")
	flag.Parse()

	// Init DB
	if err := store.InitDB(*dbPath); err != nil {
		panic(err)
	}

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r)

	// Start server
	r.Start(*addr)
}
