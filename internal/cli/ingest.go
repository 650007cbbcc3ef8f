package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
)

var ingestTexts []string

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Store documents for retrieval",
	Long: `Store documents in .docrag/docrag.db. Every matching file under a
directory becomes one document; --text stores a literal passage.
Text that is already stored is reported and not embedded again.

Examples:
  docrag ingest .                                  # Ingest current directory
  docrag ingest notes/paris.txt docs/
  docrag ingest --text "Paris is the capital of France."`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringArrayVarP(&ingestTexts, "text", "t", nil, "passage to store (repeatable)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(ingestTexts) == 0 {
		args = []string{GetRootDir()}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	for _, text := range ingestTexts {
		res, err := a.service.Ingester.Ingest(ctx, text)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		switch res.Status {
		case domain.StatusInserted:
			fmt.Printf("Inserted %s (%d documents)\n", shortID(res.ID), res.DocCount)
		case domain.StatusAlreadyPresent:
			fmt.Printf("Already present %s (%d documents)\n", shortID(res.ID), res.DocCount)
		default:
			fmt.Println("Rejected: text is empty")
		}
	}

	cfg := GetConfig()
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes, cfg.Ingest.MaxBytes)

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("path does not exist: %w", err)
		}

		fmt.Printf("Scanning %s...\n", path)
		result, err := a.service.Ingester.IngestFiles(ctx, path, walker, newProgress("Ingesting"))
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		fmt.Printf("\nIngest complete:\n")
		fmt.Printf("  Files:           %d\n", result.Files)
		fmt.Printf("  Inserted:        %d\n", result.Inserted)
		fmt.Printf("  Already present: %d\n", result.AlreadyPresent)
		fmt.Printf("  Rejected:        %d (empty)\n", result.Rejected)
		fmt.Printf("  Skipped:         %d (too large)\n", len(result.Skipped))
		fmt.Printf("  Documents:       %d\n", result.DocCount)

		if len(result.Errors) > 0 {
			fmt.Printf("\nWarnings:\n")
			for _, e := range result.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
	}

	fmt.Printf("\nStore: %s\n", cfg.StorePath(GetRootDir()))
	return nil
}

// newProgress returns a callback that draws a progress bar with an ETA,
// created on the first call once the total is known.
func newProgress(label string) func(processed, total int, current string) {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(processed, total int, current string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-processed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
