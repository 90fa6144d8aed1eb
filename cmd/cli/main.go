package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"safelink-scanner/internal/cache"
	"safelink-scanner/internal/config"
	"safelink-scanner/internal/ioformats"
	"safelink-scanner/internal/models"
	"safelink-scanner/internal/pipeline"
	"safelink-scanner/pkg/logger"
)

func main() {
	in := flag.String("input", "", "input file (csv with 'url' column or ndjson)")
	out := flag.String("output", "", "output NDJSON file (default stdout)")
	concurrency := flag.Int("concurrency", 10, "worker concurrency")
	pretty := flag.Bool("pretty", false, "print colored one-line summaries instead of NDJSON")
	cachePath := flag.String("cache", "", "cache file path (default: no persistent cache)")
	flag.Parse()

	urls := flag.Args()
	if *in != "" {
		fromFile, err := ioformats.ReadURLs(*in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read input:", err)
			os.Exit(1)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "no URLs: pass them as arguments or via --input")
		os.Exit(2)
	}

	cfg := config.FromEnv()
	var store cache.Store = cache.NewMemoryStore(cfg.CacheTTL)
	if *cachePath != "" {
		store = cache.NewFileStore(*cachePath, cfg.CacheTTL)
	}
	pipe := pipeline.New(cfg, store, logger.New())

	type outRec struct {
		URL    string          `json:"url"`
		Result *models.Summary `json:"result,omitempty"`
		Error  string          `json:"error,omitempty"`
	}

	results := make([]outRec, len(urls))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			scanned, _, err := pipe.Scan(ctx, u)
			if err != nil {
				results[i] = outRec{URL: u, Error: err.Error()}
				return nil
			}
			summary := scanned.Summarize()
			results[i] = outRec{URL: u, Result: &summary}
			return nil
		})
	}
	_ = g.Wait()

	if *pretty {
		for _, r := range results {
			if r.Error != "" {
				color.Red("%-50s invalid: %s", r.URL, r.Error)
				continue
			}
			line := fmt.Sprintf("%-50s %-10s %5.1f  %s", r.URL, r.Result.Verdict, r.Result.Score, r.Result.FinalURL)
			switch r.Result.Verdict {
			case models.VerdictDangerous:
				color.Red("%s", line)
			case models.VerdictSuspicious:
				color.Yellow("%s", line)
			default:
				color.Green("%s", line)
			}
		}
		return
	}

	var w *os.File
	if *out == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create output:", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	items := make([]any, len(results))
	for i, r := range results {
		items[i] = r
	}
	if err := ioformats.WriteNDJSON(w, items); err != nil {
		fmt.Fprintln(os.Stderr, "write output:", err)
		os.Exit(1)
	}
}
