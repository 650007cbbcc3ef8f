package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docrag/config"
	"docrag/internal/observability"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	verbose  bool
	logger   *zap.Logger
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "docrag - retrieval-augmented answers over your own documents",
	Long: `docrag stores text passages with their embeddings, retrieves the passages
closest to a question and asks a generation backend (Gemini or Mistral) to
answer from them.

Example usage:
  docrag ingest ./notes                          # Store every .txt/.md file
  docrag ingest --text "Paris is the capital of France."
  docrag search -q "capital of France"           # Show the nearest passages
  docrag ask -b mistral -q "What is the capital of France?"
  docrag chat -b gemini -p technical             # Interactive session
  docrag serve                                   # HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			config.LoadEnv(rootDir)
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Logging.Console = true
			cfg.Logging.Level = "debug"
		}

		if err := cfg.EnsureDataDir(rootDir); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		logger, closeLog, err = observability.NewLogger(cfg.Logging, cfg.LogPath(rootDir))
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug events to stderr")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
