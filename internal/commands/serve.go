package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/liao/lyric-bot/internal/notice"
	"github.com/liao/lyric-bot/internal/watch"
	"github.com/liao/lyric-bot/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		board := notice.NewBoard(20)
		svc := newService(ctx, cfg, board)

		if cfg.Server.WatchIndex {
			w, err := watch.New(cfg.Index.Dir, board)
			if err != nil {
				slog.Warn("index watcher disabled", "error", err)
			} else {
				defer w.Close()
				go w.Run(ctx)
			}
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           web.NewServer(svc, board).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			slog.Info("starting HTTP server", "addr", cfg.Server.Addr, "state", svc.State())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			slog.Info("shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
		slog.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8501", "listen address")
	serveCmd.Flags().Bool("watch", true, "warn when the index changes on disk")
	rootCmd.AddCommand(serveCmd)
}
