package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
)

var (
	migrateClear  bool
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Re-embed stored documents after an embedder change",
	Long: `A store remembers the embedder, dimension and metric it was built with
and refuses to open with different ones. migrate re-embeds every stored
document with the configured embedder in one transaction, or with --clear
drops all documents instead.

Examples:
  docrag migrate --dry-run
  docrag migrate
  docrag migrate --clear`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateClear, "clear", false, "delete all documents instead of re-embedding")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "only report whether a migration is needed")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	path := cfg.StorePath(GetRootDir())

	if migrateClear {
		if err := store.Clear(path); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		logger.Info("store cleared")
		fmt.Printf("Cleared %s\n", path)
		return nil
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return err
	}
	metric, err := domain.ParseMetric(cfg.Store.Metric)
	if err != nil {
		return err
	}

	check, err := store.CheckMigration(path, storeOptions(embedder, metric))
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	if !check.NeedsReembed {
		fmt.Println("Store is up to date.")
		return nil
	}

	fmt.Printf("Re-embed required: %s\n", check.Reason)
	if migrateDryRun {
		return nil
	}

	n, err := store.Reembed(cmd.Context(), path, embedder, metric, cfg.Embedding.BatchSize)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("store re-embedded", zap.Int("documents", n), zap.String("embedder", embedder.ModelName()))
	fmt.Printf("Re-embedded %d documents with %s\n", n, embedder.ModelName())
	return nil
}
