// Command vaultctl runs the coordinator and storage-node daemons and
// drives the client-side register/login/upload/download verbs, mirroring
// the teacher's threshold-cli as a single multi-role binary with one
// subcommand tree per role instead of one binary per protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "vaultctl",
	Short: "Threshold-protected cloud file storage control plane",
	Long: `vaultctl runs the coordinator and storage-node daemons of a
threshold-protected file storage system, and drives client-side
register/login/upload/download operations against a running
coordinator.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML/JSON config file")

	rootCmd.AddCommand(coordinatorCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(keypairCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
