package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the stored passages nearest to a query",
	Long: `Embed the query and list the closest stored passages with their
similarity scores. No generation backend is called.

Examples:
  docrag search -q "capital of France"
  docrag search -q "rivers" --top-k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

type searchResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(searchText) == "" {
		return domain.ErrEmptyInput
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	topK := GetConfig().Retrieve.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	vectors, err := a.embedder.Embed(cmd.Context(), []string{searchText})
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	hits, err := a.store.Search(cmd.Context(), vectors[0], topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]searchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, searchResult{ID: h.Document.ID, Score: h.Score, Text: h.Document.Text})
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, shortID(r.ID), r.Score)
		fmt.Println(truncateRunes(r.Text, 500))
		fmt.Println()
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
