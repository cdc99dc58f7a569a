package main

import (
	"flag"
	"fmt"
	"os"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/deck"
	"sales-dashboard/internal/observability"
)

func main() {
	out := flag.String("o", "dashboard_summary.pptx", "Path of the presentation to write")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: deck [-o dashboard_summary.pptx]\n\nWrites the dashboard summary slide deck.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := observability.NewLogger(config.LoggerConfig{Level: "info", Format: "text"})

	if err := writeDeck(*out); err != nil {
		logger.Error("failed to write deck", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("presentation created", "path", *out, "slides", deck.Summary().Len())
}

func writeDeck(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := deck.WritePPTX(f, deck.Summary()); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
