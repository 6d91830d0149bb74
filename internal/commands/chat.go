package commands

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/liao/lyric-bot/internal/notice"
	"github.com/liao/lyric-bot/internal/tui"
)

const chatLogFile = "lyricbot-chat.log"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive terminal session",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 终端界面占用 stdout，日志写到文件
		f, err := tea.LogToFile(chatLogFile, "lyricbot")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		setupLogging(f, currentConfig.Log)

		board := notice.NewBoard(10)
		svc := newService(cmd.Context(), currentConfig, board)

		p := tea.NewProgram(tui.New(cmd.Context(), svc, board))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		slog.Info("chat session ended")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
