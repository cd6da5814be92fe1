package debug

import "github.com/spf13/cobra"

var DebugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Decoding utilities for values found in admin transactions",
}

func init() {
	DebugCmd.AddCommand(decodeAccountCmd)
	DebugCmd.AddCommand(currencyCmd)
}
