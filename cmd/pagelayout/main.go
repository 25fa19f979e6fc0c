package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdfgrid/go/internal/bridge"
	"github.com/pdfgrid/go/internal/config"
	"github.com/pdfgrid/go/internal/extractor"
	"github.com/pdfgrid/go/internal/logger"
	"github.com/pdfgrid/go/internal/models"
)

var Logger = logger.GetLogger("pagelayout")

func loadConfig(path string, workers int) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return cfg, err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	return cfg, nil
}

func convert(ctx context.Context, inputPath, outputPath string, cfg config.Config) error {
	start := time.Now()
	Logger.Info("beginning conversion...")
	Logger.Debug("paths", "input", inputPath, "output", outputPath, "workers", cfg.Workers)

	pages, err := bridge.Load(inputPath)
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}
	readElapsed := time.Since(start)

	doc := &models.Document{Pages: make([]*models.Layout, len(pages))}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			layout, err := extractor.ExtractPage(gctx, page, cfg)
			if err != nil {
				return err
			}
			doc.Pages[i] = layout
			Logger.Debug("processed page", "page", layout.Page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	truncated := 0
	for _, l := range doc.Pages {
		if l.Truncated {
			truncated++
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeDocument(out, doc); err != nil {
		return err
	}

	total := time.Since(start)
	Logger.Info("read page dumps", "pages", len(pages), "time", readElapsed)
	Logger.Info("layout reconstruction", "time", total-readElapsed, "truncated", truncated)
	Logger.Info("success")
	return nil
}

// writeDocument encodes doc into out and closes it, reporting a failed close.
func writeDocument(out io.WriteCloser, doc *models.Document) (err error) {
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	w := bufio.NewWriterSize(out, 256*1024)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	workers := flag.Int("workers", 0, "pages processed in parallel (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input.json|dir> <output.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *workers)
	if err != nil {
		Logger.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := convert(ctx, flag.Arg(0), flag.Arg(1), cfg); err != nil {
		Logger.Error("conversion failed", "err", err)
		stop()
		os.Exit(1)
	}
}
