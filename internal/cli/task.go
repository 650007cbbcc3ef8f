package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	taskBackend  string
	taskText     string
	taskQuestion string
	taskLanguage string
)

var taskCmd = &cobra.Command{
	Use:   "task <summarize|sentiment|answer|code>",
	Short: "Run a one-off generation task without retrieval",
	Long: `Send a single task prompt to the selected backend. Input comes from
--text, or stdin when --text is omitted.

Examples:
  docrag task summarize -b mistral < report.txt
  docrag task sentiment -b gemini --text "I loved it"
  docrag task answer -b mistral --question "Who wrote it?" < passage.txt
  docrag task code -b gemini --language Go --text "reverse a string"`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"summarize", "sentiment", "answer", "code"},
	RunE:      runTask,
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.Flags().StringVarP(&taskBackend, "backend", "b", "", "generation backend (default from config)")
	taskCmd.Flags().StringVarP(&taskText, "text", "t", "", "input text (default stdin)")
	taskCmd.Flags().StringVar(&taskQuestion, "question", "", "question for the answer task")
	taskCmd.Flags().StringVar(&taskLanguage, "language", "", "language for the code task (default Python)")
}

func runTask(cmd *cobra.Command, args []string) error {
	text := taskText
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.newSession("", taskBackend)
	if err != nil {
		return err
	}

	var (
		ctx   = cmd.Context()
		tasks = a.service.Tasks
		sel   = sess.Selection()
		out   string
	)
	switch args[0] {
	case "summarize":
		out, err = tasks.Summarize(ctx, sel, text)
	case "sentiment":
		out, err = tasks.AnalyzeSentiment(ctx, sel, text)
	case "answer":
		out, err = tasks.AnswerQuestion(ctx, sel, taskQuestion, text)
	case "code":
		out, err = tasks.GenerateCode(ctx, sel, text, taskLanguage)
	default:
		return fmt.Errorf("unknown task %q", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Println(strings.TrimSpace(out))
	return nil
}
