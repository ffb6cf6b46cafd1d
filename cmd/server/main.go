// Package main is the entry point for the midiremap API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/james-see/midiremap/pkg/api"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "midiremap-server", ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	fmt.Printf("Starting midiremap API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
