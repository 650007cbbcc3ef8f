package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"docrag/config"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
)

func main() {
	dir := flag.String("dir", ".", "project directory holding .docrag")
	query := flag.String("q", "", "query to test")
	topK := flag.Int("k", 10, "number of results")
	runs := flag.Int("runs", 20, "timed search repetitions")
	flag.Parse()

	if *topK <= 0 {
		fmt.Fprintln(os.Stderr, "-k must be positive")
		os.Exit(1)
	}

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./notes -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Store and embedder information")
		fmt.Println("  2. Similarity of the top matches to the query")
		fmt.Println("  3. Embed and search latency")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}
	metric, err := domain.ParseMetric(cfg.Store.Metric)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.StorePath(*dir), store.Options{
		Dimension: embedder.Dimension(),
		Metric:    metric,
		Embedder:  embedder.ModelName(),
		Timeout:   2 * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	stats, err := st.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading store stats: %v\n", err)
		os.Exit(1)
	}
	if stats.Documents == 0 {
		fmt.Fprintln(os.Stderr, "Store is empty - run 'docrag ingest' first")
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Embedder:  %s (%s)\n", stats.Embedder, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", stats.Dimension)
	fmt.Printf("Metric:    %s\n", stats.Metric)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	embedStart := time.Now()
	queryVec, err := embedder.Embed(ctx, []string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	embedTime := time.Since(embedStart)

	results, err := st.Search(ctx, queryVec[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}

	avgScore, topScore, ok := scoreSummary(results)
	if !ok {
		fmt.Println("No matches.")
		os.Exit(1)
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	for i, r := range results {
		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating(r.Score), r.Score, r.Document.ID[:12])
		fmt.Printf("   %s\n\n", preview(r.Document.Text, 150))
	}

	searchStart := time.Now()
	for i := 0; i < *runs; i++ {
		if _, err := st.Search(ctx, queryVec[0], *topK); err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
	}
	searchTime := time.Since(searchStart) / time.Duration(max(*runs, 1))

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", topScore)
	fmt.Printf("  Embed latency:      %s\n", embedTime)
	fmt.Printf("  Search latency:     %s (mean of %d)\n", searchTime, *runs)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - consider a model-backed embedder")
	}
}

func rating(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.5:
		return "GOOD"
	case score > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

// scoreSummary returns the mean and best score; ok is false for no results.
func scoreSummary(results []domain.ScoredDocument) (avg, top float64, ok bool) {
	if len(results) == 0 {
		return 0, 0, false
	}
	var total float64
	for _, r := range results {
		total += r.Score
	}
	return total / float64(len(results)), results[0].Score, true
}

// preview flattens text to one line and cuts it to at most n runes.
func preview(text string, n int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
