package debug

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/xrpl"
)

var maxCurrencyLength int

var decodeAccountCmd = &cobra.Command{
	Use:   "decode-account [CHAIN] [ACCOUNT]",
	Short: "Decode a token pair account the way the auditor reads it",
	Long: `Decode a token pair account. For XRP the account is hex("issuer:currency") and the
decoded currency, issuer and explorer link are printed. For other chains the
normalized address used in address comparisons is printed.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		chain := strings.ToUpper(args[0])
		account := args[1]

		if chain != "XRP" {
			fmt.Printf("address: 0x%s\n", chains.NormalizeAddress(account))
			return
		}

		raw := xrpl.ParseTokenPairAccount(account, false)
		if raw.Issuer == "" && raw.Currency == "" {
			log.Fatalf("%s is not a hex encoded ASCII account", account)
		}
		token := xrpl.ParseTokenPairAccount(account, true)
		fmt.Printf("issuer:   %s\n", token.Issuer)
		fmt.Printf("currency: %s (raw %s)\n", token.Currency, raw.Currency)
		if token.Currency == "" {
			fmt.Println("currency code needs manual review")
			return
		}
		fmt.Printf("explorer: %s\n", token.ExplorerURL())
	},
}

var currencyCmd = &cobra.Command{
	Use:   "currency [CODE]",
	Short: "Normalize a ledger currency code",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code := args[0]
		fmt.Printf("normalized: %q\n", xrpl.NormalizeCurrencyCode(code, maxCurrencyLength))

		b, err := hex.DecodeString(code)
		if err != nil || len(b) == 0 || b[0] != 0x01 {
			return
		}
		d, err := xrpl.DecodeDemurrage(b)
		if err != nil {
			log.Fatalf("invalid demurrage code: %v", err)
		}
		fmt.Printf("demurrage: code %s, start %d, period %gs, %g%% pa\n", d.Code, d.Start, d.Period, d.AnnualInterest())
	},
}

func init() {
	currencyCmd.Flags().IntVar(&maxCurrencyLength, "maxLength", xrpl.DefaultMaxCurrencyLength, "Maximum length of a decoded currency name")
}
