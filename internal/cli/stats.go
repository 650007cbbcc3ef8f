package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store and backend information",
	RunE:  runStats,
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the generation backends",
	RunE:  runBackends,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(backendsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Store:     %s\n", GetConfig().StorePath(GetRootDir()))
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Embedder:  %s (dimension %d)\n", stats.Embedder, stats.Dimension)
	fmt.Printf("Metric:    %s\n", stats.Metric)
	fmt.Printf("Backends:  %s\n", strings.Join(a.service.Registry.Names(), ", "))
	return nil
}

func runBackends(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	backends := []struct {
		name, model, keyEnv string
	}{
		{"gemini", cfg.Generation.Gemini.Model, cfg.Generation.Gemini.APIKeyEnv},
		{"mistral", cfg.Generation.Mistral.Model, cfg.Generation.Mistral.APIKeyEnv},
	}

	for _, b := range backends {
		key := "missing"
		if os.Getenv(b.keyEnv) != "" {
			key = "set"
		}
		marker := " "
		if strings.EqualFold(cfg.Generation.Default, b.name) {
			marker = "*"
		}
		fmt.Printf("%s %-8s model=%s %s=%s\n", marker, b.name, b.model, b.keyEnv, key)
	}
	return nil
}
