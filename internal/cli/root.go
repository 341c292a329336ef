// Package cli implements pinnctl, the operator CLI. It runs the same services
// as the HTTP server directly against the database.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs pinnctl and returns the process exit code.
func Execute() int {
	rt := &session{}
	defer rt.close()

	rootCmd := newRootCmd(rt)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(rt *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pinnctl",
		Short:         "Operate Pinn workspace data",
		Long:          "Provision workspace namespaces, import CSV datasets and manage dataset tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(rt),
		newProvisionCmd(rt),
		newWorkspacesCmd(rt),
		newImportCmd(rt),
		newDatasetsCmd(rt),
		newDropCmd(rt),
	)
	return rootCmd
}
