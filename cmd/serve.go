package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"splitcmd/internal/daemon"
	"splitcmd/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the splitcmd daemon: the command/event facade a UI attaches to",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		hub := daemon.NewHub()
		state := daemon.NewAppState(cfg, hub)
		srv := daemon.NewServer(state, hub, cfg.Port)
		srv.Start()

		logger.Log.Info("splitcmd daemon ready", zap.Int("port", cfg.Port))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
