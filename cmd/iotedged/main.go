// Command iotedged is the edge device daemon: it provisions a device
// identity, launches and supervises the edge-agent module, and serves the
// management and workload local HTTP APIs until shutdown.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rdivossen/iotedge/internal/logging"
	"github.com/rdivossen/iotedge/internal/orchestrator"
)

func main() {
	os.Exit(run())
}

func run() int {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "iotedged [settings-file]",
		Short: "Run the edge device daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settingsPath = args[0]
			}
			if settingsPath == "" {
				settingsPath = "/etc/iotedge/config.yaml"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := orchestrator.New(settingsPath)
			if err := m.Run(ctx); err != nil {
				logging.WithError(err).Error("fatal error, shutting down")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&settingsPath, "config", "c", "", "path to the settings file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
