package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/transitscope/transitscope/internal/log"
	"github.com/transitscope/transitscope/internal/mast"
	"github.com/transitscope/transitscope/internal/pipeline"
	"github.com/transitscope/transitscope/internal/results"
	"github.com/transitscope/transitscope/pkg/config"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML config file with hz_targets (overrides single-target flags)")
		target       = flag.String("target", "", "archive catalog ID, e.g. \"TIC 307210830\"")
		knownPeriods = flag.String("known-periods", "", "comma-separated known planet periods in days")
		hzMin        = flag.Float64("hz-min", 0, "habitable zone inner edge period in days")
		hzMax        = flag.Float64("hz-max", 0, "habitable zone outer edge period in days")
		bootstrapN   = flag.Int("bootstrap", 50, "bootstrap resample count")
		seed         = flag.Int64("seed", 0, "bootstrap random seed")
		author       = flag.String("author", "SPOC", "archive pipeline author")
		mission      = flag.String("mission", "TESS", "archive mission")
		baseURL      = flag.String("base-url", "", "archive base URL override")
		cacheDir     = flag.String("cache-dir", "", "light curve cache directory (empty disables caching)")
		plotDir      = flag.String("plot-dir", ".", "directory for PNG output (empty disables plots)")
		resultsDB    = flag.String("results-db", "transitscope.db", "results database path (empty disables persistence)")
		timeout      = flag.Duration("timeout", 30*time.Minute, "overall run timeout")
		debug        = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if err := log.Init(log.Config{Debug: *debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	archive := config.Archive{BaseURL: *baseURL, Author: *author, Mission: *mission}
	targets := []config.HZTarget{}

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		targets = cfg.HZ
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
		if *target == "" || *hzMin <= 0 || *hzMax <= *hzMin {
			fmt.Fprintln(os.Stderr, "Either -config or -target with -hz-min < -hz-max is required")
			flag.Usage()
			os.Exit(1)
		}
		periods, err := parsePeriods(*knownPeriods)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -known-periods: %v\n", err)
			os.Exit(1)
		}
		targets = append(targets, config.HZTarget{
			Name:            *target,
			KnownPeriods:    periods,
			HZPeriodMinDays: *hzMin,
			HZPeriodMaxDays: *hzMax,
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
		search := &pipeline.HabitableZoneSearch{
			Target:       t.Name,
			KnownPeriods: t.KnownPeriods,
			HZPeriodMin:  t.HZPeriodMinDays,
			HZPeriodMax:  t.HZPeriodMaxDays,
			BootstrapN:   *bootstrapN,
			Seed:         *seed,
			Archive:      client,
			Author:       archive.Author,
			Mission:      archive.Mission,
			Store:        store,
			PlotDir:      *plotDir,
			Logger:       log.GetSugaredLogger(),
		}

		report, err := search.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Habitable zone search failed for %s: %v\n", t.Name, err)
			failed = true
			continue
		}
		fmt.Print(report.Summary())
	}

	if failed {
		os.Exit(1)
	}
}

func parsePeriods(csv string) ([]float64, error) {
	if csv == "" {
		return nil, nil
	}
	var periods []float64
	for _, field := range strings.Split(csv, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}
