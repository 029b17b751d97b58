// Command fetch downloads ECMWF S2S precipitation archives for a range of
// forecast base dates without running the full service. Archives already on
// disk are skipped.
//
// Usage:
//
//	go run ./cmd/fetch \
//	  -start 2024-05-13 -end 2024-05-19 \
//	  -data-dir data \
//	  -key "$ECMWF_KEY" \
//	  -control
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/ensemble-forecast-service/internal/adapter/archive"
	"github.com/couchcryptid/ensemble-forecast-service/internal/adapter/ecmwf"
	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
	"github.com/couchcryptid/ensemble-forecast-service/internal/observability"
)

func main() {
	start := flag.String("start", "", "first forecast base date (YYYY-MM-DD)")
	end := flag.String("end", "", "last forecast base date (defaults to -start)")
	dataDir := flag.String("data-dir", "data", "directory for downloaded archives")
	key := flag.String("key", os.Getenv("ECMWF_KEY"), "ECMWF API key")
	timeout := flag.Duration("timeout", 5*time.Minute, "per-download timeout")
	control := flag.Bool("control", false, "also download the control forecast")
	flag.Parse()

	if *start == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *end == "" {
		*end = *start
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, *start, *end, *dataDir, *key, *timeout, *control); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, start, end, dataDir, key string, timeout time.Duration, control bool) int {
	dates, err := archive.DateRange(start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	logger := observability.NewLogger("info", "text")
	client := ecmwf.NewClient(key, timeout, dataDir, logger)
	store := archive.NewStore(dataDir)

	kinds := []domain.ForecastKind{domain.PerturbedForecast}
	if control {
		kinds = append(kinds, domain.ControlForecast)
	}

	failures := 0
	for _, date := range dates {
		for _, kind := range kinds {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "interrupted")
				return 1
			}
			if store.Exists(kind, date) {
				fmt.Printf("  %s %s: already downloaded\n", date, kind)
				continue
			}
			path, err := client.Fetch(ctx, kind, date)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s %s: FAILED: %v\n", date, kind, err)
				failures++
				continue
			}
			fmt.Printf("  %s %s: %s\n", date, kind, path)
		}
	}

	fmt.Printf("\n%d dates processed, %d failures\n", len(dates), failures)
	if failures > 0 {
		return 1
	}
	return 0
}
