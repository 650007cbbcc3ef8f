package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docrag/internal/domain"
	"docrag/internal/usecase"
)

var (
	askQuery   string
	askBackend string
	askPersona string
	askTopK    int
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the stored documents",
	Long: `Retrieve the passages closest to the question and have the selected
backend answer from them.

Examples:
  docrag ask -b mistral -q "What is the capital of France?"
  docrag ask -b gemini -p casual -k 5 -q "Which rivers are mentioned?" --sources`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askBackend, "backend", "b", "", "generation backend: gemini or mistral (default from config)")
	askCmd.Flags().StringVarP(&askPersona, "persona", "p", "", "answer style: professional, technical or casual")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved passages")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.newSession(askPersona, askBackend)
	if err != nil {
		return err
	}

	out := a.service.Retriever.Retrieve(cmd.Context(), usecase.RetrieveRequest{Query: askQuery, TopK: askTopK}, sess)
	printOutcome(out, askSources)
	if out.Status == domain.OutcomeFailed {
		return fmt.Errorf("%s", out.Kind)
	}
	return nil
}

func printOutcome(out domain.Outcome, sources bool) {
	switch out.Status {
	case domain.OutcomeAnswered:
		fmt.Println(out.Answer)
		if sources {
			fmt.Println()
			for i, s := range out.Sources {
				color.New(color.Faint).Printf("[%d] %.3f %s\n", i+1, s.Score, s.Document.Text)
			}
		}
	case domain.OutcomeNoResults:
		color.Yellow("%s", out.Message)
	default:
		color.Red("%s: %s", out.Kind, out.Message)
	}
}
