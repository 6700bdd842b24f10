package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/transitscope/transitscope/internal/ephemeris"
	"github.com/transitscope/transitscope/internal/log"
	"github.com/transitscope/transitscope/internal/mast"
)

func main() {
	var (
		target   = flag.String("target", "", "archive catalog ID, e.g. \"TIC 307210830\"")
		author   = flag.String("author", "SPOC", "archive pipeline author")
		mission  = flag.String("mission", "TESS", "archive mission")
		baseURL  = flag.String("base-url", "", "archive base URL override")
		cacheDir = flag.String("cache-dir", "", "light curve cache directory (empty disables caching)")
		timeout  = flag.Duration("timeout", 10*time.Minute, "download timeout")
		debug    = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if *target == "" {
		fmt.Fprintln(os.Stderr, "-target is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := log.Init(log.Config{Debug: *debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	client := mast.NewClient(mast.ClientConfig{
		BaseURL:  *baseURL,
		CacheDir: *cacheDir,
	}, log.GetSugaredLogger())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	lc, err := client.FetchStitched(ctx, *target, *author, *mission)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching light curve: %v\n", err)
		os.Exit(1)
	}

	first := lc.Time[0]
	last := lc.Time[lc.Len()-1]

	fmt.Printf("Light curve for %s\n", *target)
	fmt.Printf("  Points:     %d\n", lc.Len())
	fmt.Printf("  Span:       %.1f days\n", lc.Span())
	fmt.Printf("  Start:      %.4f BTJD (%s)\n", first, ephemeris.BTJDToTime(first).Format(time.RFC3339))
	fmt.Printf("  End:        %.4f BTJD (%s)\n", last, ephemeris.BTJDToTime(last).Format(time.RFC3339))
}
