// Command seqassist-tui is an interactive console for searching ingested
// documentation. Any PDF paths given as arguments are ingested before the
// console starts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"seqassist/internal/app"
	"seqassist/internal/config"
	"seqassist/internal/log"
	"seqassist/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config file (default ~/.config/seqassist/config.yaml)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	_ = godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	// The alternate screen owns stdout, so logs go to stderr.
	logger := log.NewWithWriter(os.Stderr, log.Config{Level: level})

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	retr, err := app.BuildRetriever(cfg, logger)
	if err != nil {
		return err
	}

	for _, pdf := range flag.Args() {
		report, err := retr.ProcessPDF(context.Background(), pdf)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", pdf, err)
		}
		fmt.Printf("ingested %s: %d chunks\n", pdf, report.ChunksAdded)
		if report.Summary != "" {
			fmt.Println(report.Summary)
		}
	}

	program := tea.NewProgram(tui.New(retr, cfg.Retriever.TopK), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
