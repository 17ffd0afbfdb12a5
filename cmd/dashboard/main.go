package main

import (
	"flag"
	"os"

	"quadsim/internal/dashboard"
	"quadsim/internal/logging"
)

func main() {
	out := flag.String("out", "build", "Output directory")
	flag.Parse()

	log := logging.New()
	if err := dashboard.Render(*out); err != nil {
		log.Error("dashboard render failed", "err", err)
		os.Exit(1)
	}
	log.Info("dashboards written", "dir", *out)
}
