package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docrag/internal/domain"
	"docrag/internal/usecase"
)

var (
	chatBackend string
	chatPersona string
	chatTopK    int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question-answering session",
	Long: `Ask questions one per line. Each answer sees the conversation so far.

Commands inside the session:
  /backend <name>   switch generation backend
  /persona <style>  switch answer style
  /history          print the conversation
  /reset            forget the conversation
  /quit             leave`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatBackend, "backend", "b", "", "generation backend: gemini or mistral (default from config)")
	chatCmd.Flags().StringVarP(&chatPersona, "persona", "p", "", "answer style: professional, technical or casual")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.newSession(chatPersona, chatBackend)
	if err != nil {
		return err
	}

	prompt := color.New(color.FgCyan, color.Bold)
	backend, _ := sess.Selection().Current()
	fmt.Printf("docrag chat (backend: %s, persona: %s, backends: %s)\n",
		orNone(backend), sess.Persona(), strings.Join(a.service.Registry.Names(), ", "))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		prompt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := chatCommand(sess, line); quit {
				return nil
			}
			continue
		}

		out := a.service.Retriever.Retrieve(cmd.Context(), usecase.RetrieveRequest{
			Query:          line,
			TopK:           chatTopK,
			RecordQuestion: true,
		}, sess)
		printOutcome(out, false)
	}
}

func chatCommand(sess *usecase.Session, line string) (quit bool) {
	fields := strings.Fields(line)
	arg := strings.Join(fields[1:], " ")

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/backend":
		if err := sess.Selection().Select(arg); err != nil {
			color.Red("%s", err)
			return false
		}
		name, _ := sess.Selection().Current()
		fmt.Printf("backend: %s\n", name)
	case "/persona":
		sess.SetPersona(domain.ParsePersona(arg))
		fmt.Printf("persona: %s\n", sess.Persona())
	case "/history":
		for _, turn := range sess.History() {
			fmt.Printf("%s: %s\n", turn.Role, turn.Text)
		}
	case "/reset":
		sess.ResetHistory(nil)
		fmt.Println("history cleared")
	default:
		color.Yellow("unknown command %s", fields[0])
	}
	return false
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
