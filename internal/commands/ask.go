package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/liao/lyric-bot/internal/chatbot"
	"github.com/liao/lyric-bot/internal/notice"
)

// Exit codes for ask.
const (
	exitFailed   = 1
	exitNoAnswer = 2
)

var askCmd = &cobra.Command{
	Use:   "ask <lyric fragment>",
	Short: "Answer a single query and exit",
	Long: `Answer a single query and exit. The credential must come from the secrets
file or the environment; there is no interactive prompt.
Exit status is 0 when a song was found, 2 when the index had no answer and 1 on
error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(cmd.Context(), currentConfig, notice.NewBoard(10))
		if svc.State() == chatbot.StateUnconfigured {
			return &exitError{code: exitFailed, err: fmt.Errorf("set GOOGLE_API_KEY or the secrets file: %w", chatbot.ErrNoCredential)}
		}

		out := svc.Handle(cmd.Context(), strings.Join(args, " "))
		printOutcome(cmd.OutOrStdout(), out)
		if code := exitCode(out); code != 0 {
			return &exitError{code: code}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed)
	labelColor   = color.New(color.Bold)
)

func printOutcome(w io.Writer, out chatbot.Outcome) {
	switch out.Status {
	case chatbot.StatusAnswered:
		successColor.Fprintln(w, out.Message())
		fmt.Fprintf(w, "%s %s\n", labelColor.Sprint(chatbot.AnswerLabel), out.Answer)
	case chatbot.StatusNoAnswer:
		failureColor.Fprintln(w, out.Message())
	case chatbot.StatusFailed:
		failureColor.Fprintln(w, out.Message())
		failureColor.Fprintln(w, chatbot.ErrorHint)
	}
}

func exitCode(out chatbot.Outcome) int {
	switch out.Status {
	case chatbot.StatusFailed:
		return exitFailed
	case chatbot.StatusNoAnswer:
		return exitNoAnswer
	default:
		return 0
	}
}
