package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chainsight/internal/logger"
	"chainsight/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant as an HTTP service",
	Long:  `Exposes POST /api/chat and GET /healthz on the configured port.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(app.Runner, app.Ready)
		fmt.Printf("Listening on %s\n", app.ListenAddr)
		logger.Log.Printf("[Serve] listening on %s", app.ListenAddr)

		if err := srv.ListenAndServe(ctx, app.ListenAddr); err != nil {
			fmt.Println("Server error:", err)
			os.Exit(1)
		}
	},
}
