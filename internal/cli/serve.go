package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/push"
)

// PushServer is wired by the app at startup.
var PushServer *push.Server

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket push server for dashboard clients",
	Long: `Run the push server. Clients connecting to /ws receive a full snapshot
of every project's tasks, then fresh snapshots whenever a watched task
file or the project registry changes on disk. /healthz answers liveness
probes.

The server runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if PushServer == nil {
			return fmt.Errorf("push server not initialized")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("push server listening on %s\n", PushServer.Addr())
		return PushServer.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
