package cmd

import (
	"fmt"
	"os"

	"github.com/zhwir/offline-tx-validator/cmd/audit"
	"github.com/zhwir/offline-tx-validator/cmd/chains"
	"github.com/zhwir/offline-tx-validator/cmd/debug"
	"github.com/zhwir/offline-tx-validator/pkg/version"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "txaudit",
	Short: "Offline auditor for bridge token pair admin transactions",
}

// Top-level version subcommand
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display binary version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (any format viper reads, e.g. audit.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "info", "Logging level (debug, info, warn, error, dpanic, panic, fatal)")

	rootCmd.AddCommand(audit.AuditCmd)
	rootCmd.AddCommand(chains.ChainsCmd)
	rootCmd.AddCommand(debug.DebugCmd)
	rootCmd.AddCommand(versionCmd)
}
