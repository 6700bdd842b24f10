package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/transitscope/transitscope/internal/log"
	"github.com/transitscope/transitscope/internal/mast"
	"github.com/transitscope/transitscope/internal/pipeline"
	"github.com/transitscope/transitscope/internal/results"
	"github.com/transitscope/transitscope/pkg/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file with trojan_targets (overrides single-target flags)")
		target     = flag.String("target", "", "archive catalog ID, e.g. \"TIC 424865156\"")
		period     = flag.Float64("period", 0, "known planet orbital period in days")
		epoch      = flag.Float64("epoch", 0, "mid-transit reference time (BTJD)")
		depth      = flag.Float64("depth", 0, "known planet transit depth in ppm")
		author     = flag.String("author", "SPOC", "archive pipeline author")
		mission    = flag.String("mission", "TESS", "archive mission")
		baseURL    = flag.String("base-url", "", "archive base URL override")
		cacheDir   = flag.String("cache-dir", "", "light curve cache directory (empty disables caching)")
		plotDir    = flag.String("plot-dir", ".", "directory for PNG output (empty disables plots)")
		resultsDB  = flag.String("results-db", "transitscope.db", "results database path (empty disables persistence)")
		threshold  = flag.Float64("threshold", 3.0, "detection threshold in sigma")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if err := log.Init(log.Config{Debug: *debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	archive := config.Archive{BaseURL: *baseURL, Author: *author, Mission: *mission}
	targets := []config.TrojanTarget{}

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		targets = cfg.Trojan
		if cfg.Archive.BaseURL != "" {
			archive = cfg.Archive
		}
		if cfg.PlotDir != "" {
			*plotDir = cfg.PlotDir
		}
		if cfg.CacheDir != "" {
			*cacheDir = cfg.CacheDir
		}
		if cfg.ResultsDB != "" {
			*resultsDB = cfg.ResultsDB
		}
	} else {
		if *target == "" || *period <= 0 {
			fmt.Fprintln(os.Stderr, "Either -config or -target with a positive -period is required")
			flag.Usage()
			os.Exit(1)
		}
		targets = append(targets, config.TrojanTarget{
			Name:       *target,
			PeriodDays: *period,
			EpochBTJD:  *epoch,
			DepthPPM:   *depth,
		})
	}

	client := mast.NewClient(mast.ClientConfig{
		BaseURL:  archive.BaseURL,
		CacheDir: *cacheDir,
	}, log.GetSugaredLogger())

	var store *results.Store
	if *resultsDB != "" {
		var err error
		store, err = results.Open(*resultsDB, log.GetSugaredLogger())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	failed := false
	for _, t := range targets {
		search := &pipeline.TrojanSearch{
			Target:         t.Name,
			Period:         t.PeriodDays,
			Epoch:          t.EpochBTJD,
			KnownDepthPPM:  t.DepthPPM,
			ThresholdSigma: *threshold,
			Archive:        client,
			Author:         archive.Author,
			Mission:        archive.Mission,
			Store:          store,
			PlotDir:        *plotDir,
			Logger:         log.GetSugaredLogger(),
		}

		report, err := search.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Trojan search failed for %s: %v\n", t.Name, err)
			failed = true
			continue
		}
		fmt.Print(report.Summary())
	}

	if failed {
		os.Exit(1)
	}
}
