package chains

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/common"
)

var (
	chainsEnv    string
	chainsFile   string
	chainsOutput string
)

var ChainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "Show the chain table the auditor checks against",
	Long: `Display the active chain table: numeric chain id, wallet id, admin account,
token manager proxy and fee model of every chain.

Examples:
  # Built-in mainnet table
  txaudit chains

  # A deployment specific table as JSON
  txaudit chains --chainsFile chains.yaml --output json
`,
	Run: runChains,
}

func init() {
	ChainsCmd.Flags().StringVar(&chainsEnv, "env", string(common.MainNet), "Built-in chain table to use (mainnet, testnet)")
	ChainsCmd.Flags().StringVar(&chainsFile, "chainsFile", "", "Chain table file replacing the built-in table")
	ChainsCmd.Flags().StringVarP(&chainsOutput, "output", "o", "table", "Output format: table, json")
}

func runChains(cmd *cobra.Command, args []string) {
	env, err := common.ParseEnvironment(chainsEnv)
	if err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	registry, err := chains.Load(env, chainsFile)
	if err != nil {
		log.Fatalf("Failed to load chain table: %v", err)
	}

	if chainsOutput == "json" {
		data, err := json.MarshalIndent(registry.All(), "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal chain table: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%-6s %-12s %-10s %-44s %-44s %-8s\n", "CHAIN", "CHAIN_ID", "WALLET_ID", "ADMIN", "TOKEN_MANAGER_PROXY", "FEES")
	fmt.Println("------------------------------------------------------------------------------------------------------------------------------------")
	for _, d := range registry.All() {
		fmt.Printf("%-6s %-12d %-10s %-44s %-44s %-8s\n", d.Name, d.ChainID, d.WalletID, d.Admin, d.TokenManagerProxy, d.FeeModel())
	}
	fmt.Printf("\nTotal chains: %d\n", len(registry.All()))
}
