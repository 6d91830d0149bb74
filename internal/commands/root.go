// Package commands wires configuration, the chat service and the front ends
// into the lyricbot CLI.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liao/lyric-bot/internal/config"
)

var (
	cfgFile       string
	currentConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "lyricbot",
	Short:         "lyricbot finds songs from a fragment of their lyrics",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := config.New()
		bindFlags(v, cmd)
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
		cfg, err := config.FromViper(v)
		if err != nil {
			return err
		}
		currentConfig = cfg
		setupLogging(os.Stdout, cfg.Log)
		return nil
	},
}

// flagKeys maps command-line flags onto config keys. Flags override the file
// and the environment when set.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"index-dir":  "index.dir",
	"collection": "index.collection",
	"model":      "gemini.chat_model",
	"managed":    "credential.managed",
	"addr":       "server.addr",
	"watch":      "server.watch_index",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("index-dir", "chroma_db", "index directory built by lyric-indexer")
	rootCmd.PersistentFlags().String("collection", "lyrics", "index collection name")
	rootCmd.PersistentFlags().String("model", "gemini-pro-latest", "Gemini chat model")
	rootCmd.PersistentFlags().Bool("managed", false, "only read the credential from the secrets file")
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func setupLogging(w io.Writer, lc config.LogConfig) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lc.SlogLevel()})))
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				slog.Error("command failed", "error", ee.err)
			}
			os.Exit(ee.code)
		}
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
