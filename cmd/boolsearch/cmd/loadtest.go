package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var defaultLoadQueries = []string{
	"Boolean and retrieval",
	"Boolean or algorithms",
	"data not mining",
	"search engines",
	"mining or science",
	"data and patterns",
	"retrieval not engines",
	"information retrieval systems",
}

type loadtestOptions struct {
	url         string
	concurrency int
	duration    time.Duration
	timeout     time.Duration
	queries     []string
}

type loadStats struct {
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	cacheHits atomic.Int64

	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func newLoadStats() *loadStats {
	return &loadStats{
		latencies:   make([]time.Duration, 0, 4096),
		statusCodes: make(map[int]int64),
	}
}

func (s *loadStats) record(d time.Duration, status, cacheHits int, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}
	if status >= 200 && status < 300 {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}
	s.cacheHits.Add(int64(cacheHits))

	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.statusCodes[status]++
	s.mu.Unlock()
}

func newLoadtestCmd() *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive a running search service with concurrent queries",
		Long: `Send search requests from concurrent workers for a fixed duration and
report throughput, latency percentiles, status codes and cache hits.

Examples:
  boolsearch loadtest --duration 30s --concurrency 20
  boolsearch loadtest --url http://search:8080 -q "data not mining" -q "search engines"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoadtest(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:8080", "Base URL of the search service")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 10, "Number of concurrent workers")
	cmd.Flags().DurationVar(&opts.duration, "duration", 30*time.Second, "Test duration")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.Flags().StringArrayVarP(&opts.queries, "query", "q", nil, "Query to send (repeatable; defaults to a built-in set)")

	return cmd
}

func runLoadtest(cmd *cobra.Command, opts loadtestOptions) error {
	if opts.concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", opts.concurrency)
	}
	queries := opts.queries
	if len(queries) == 0 {
		queries = defaultLoadQueries
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Target:      %s\n", opts.url)
	fmt.Fprintf(out, "Concurrency: %d\n", opts.concurrency)
	fmt.Fprintf(out, "Duration:    %s\n", opts.duration)
	fmt.Fprintf(out, "Queries:     %d unique\n\n", len(queries))

	client := &http.Client{
		Timeout: opts.timeout,
		Transport: &http.Transport{
			MaxIdleConns:        opts.concurrency * 2,
			MaxIdleConnsPerHost: opts.concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	defer client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.duration)
	defer cancel()

	stats := newLoadStats()
	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.concurrency {
		g.Go(func() error {
			for i := w; gctx.Err() == nil; i++ {
				sendSearch(gctx, client, opts.url, queries[i%len(queries)], stats)
			}
			return nil
		})
	}
	_ = g.Wait()

	printLoadReport(out, stats, opts.duration)
	if stats.success.Load() == 0 {
		return fmt.Errorf("no successful requests against %s; is the service running?", opts.url)
	}
	return nil
}

func sendSearch(ctx context.Context, client *http.Client, baseURL, query string, stats *loadStats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/api/v1/search?q="+url.QueryEscape(query), nil)
	if err != nil {
		stats.record(0, 0, 0, err)
		return
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		// Requests cut off by the end of the run are not failures.
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(ctx.Err(), context.Canceled) {
			stats.record(time.Since(start), 0, 0, err)
		}
		return
	}
	defer resp.Body.Close()

	hits := 0
	if resp.StatusCode == http.StatusOK {
		var body struct {
			Results []struct {
				CacheHit bool `json:"cache_hit"`
			} `json:"results"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			for _, r := range body.Results {
				if r.CacheHit {
					hits++
				}
			}
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	stats.record(time.Since(start), resp.StatusCode, hits, nil)
}

func printLoadReport(out io.Writer, stats *loadStats, duration time.Duration) {
	total := stats.total.Load()
	fmt.Fprintln(out, "=== Results ===")
	fmt.Fprintf(out, "Total Requests:  %d\n", total)
	fmt.Fprintf(out, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(out, "Errors:          %d\n", stats.errors.Load())
	fmt.Fprintf(out, "Cache Hits:      %d\n", stats.cacheHits.Load())
	if total > 0 {
		fmt.Fprintf(out, "Error Rate:      %.2f%%\n", float64(stats.errors.Load())/float64(total)*100)
		fmt.Fprintf(out, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := make(map[int]int64, len(stats.statusCodes))
	for code, n := range stats.statusCodes {
		codes[code] = n
	}
	stats.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		var sq float64
		for _, l := range latencies {
			diff := float64(l - avg)
			sq += diff * diff
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Latency ===")
		fmt.Fprintf(out, "Min:    %s\n", latencies[0])
		fmt.Fprintf(out, "Avg:    %s\n", avg)
		fmt.Fprintf(out, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(out, "P90:    %s\n", percentile(latencies, 90))
		fmt.Fprintf(out, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(out, "Max:    %s\n", latencies[len(latencies)-1])
		fmt.Fprintf(out, "StdDev: %s\n", time.Duration(math.Sqrt(sq/float64(len(latencies)))))
	}

	if len(codes) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Status Codes ===")
		keys := make([]int, 0, len(codes))
		for code := range codes {
			keys = append(keys, code)
		}
		slices.Sort(keys)
		for _, code := range keys {
			fmt.Fprintf(out, "  %d: %d\n", code, codes[code])
		}
	}
}

// percentile returns the nearest-rank percentile p of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
