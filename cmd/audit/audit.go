package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/zhwir/offline-tx-validator/pkg/audit"
	"github.com/zhwir/offline-tx-validator/pkg/chainquery"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/common"
	"github.com/zhwir/offline-tx-validator/pkg/config"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"go.uber.org/zap"
)

var AuditCmd = &cobra.Command{
	Use:   "audit [BATCH_FILE]",
	Short: "Audit a batch of unsigned admin transactions before they are signed",
	Long: `Run every transaction of the batch through the ordered checks and print the findings.

RPC endpoints are read from the "rpc" map of the config file, keyed by chain name:

  rpc:
    ETH: https://...
    BSC: https://...

The command exits with status 1 when the verdict is NO-GO.`,
	Args: cobra.ExactArgs(1),
	Run:  runAudit,
}

var (
	env                *string
	chainsFile         *string
	originTokensURL    *string
	rpcRateLimit       *float64
	rpcBurst           *int
	hubChain           *string
	strictFees         *bool
	gasCeilingMultiple *uint64
	refBlockMaxAge     *time.Duration
	out                *string
	metricsTextfile    *string
	noColor            *bool
)

func init() {
	env = AuditCmd.Flags().String("env", string(common.MainNet), "Built-in chain table to use (mainnet, testnet)")
	chainsFile = AuditCmd.Flags().String("chainsFile", "", "Chain table file replacing the built-in table")
	originTokensURL = AuditCmd.Flags().String("originTokensUrl", "", "URL of the registered origin token listing; provenance checks report unknown without it")
	rpcRateLimit = AuditCmd.Flags().Float64("rpcRateLimit", 0, "Maximum RPC requests per second to each chain (0 is unlimited)")
	rpcBurst = AuditCmd.Flags().Int("rpcBurst", 5, "RPC request burst allowed per chain when rpcRateLimit is set")
	hubChain = AuditCmd.Flags().String("hubChain", config.DefaultHubChain, "Chain allowed to register pairs between two other chains")
	strictFees = AuditCmd.Flags().Bool("strictFees", false, "Abort transactions whose gas price or gas limit is below the chain minimum")
	gasCeilingMultiple = AuditCmd.Flags().Uint64("gasCeilingMultiple", config.DefaultGasCeilingMultiple, "Warn when gas price exceeds this multiple of the chain minimum (0 disables)")
	refBlockMaxAge = AuditCmd.Flags().Duration("refBlockMaxAge", config.DefaultRefBlockMaxAge, "Maximum age of a reference block")
	out = AuditCmd.Flags().String("out", "", "Write the JSON report to this path")
	metricsTextfile = AuditCmd.Flags().String("metricsTextfile", "", "Write Prometheus metrics in textfile collector format to this path")
	noColor = AuditCmd.Flags().Bool("noColor", false, "Disable colored output")
}

// queryEndpoints re-keys the configured endpoints by the names the query transport uses.
func queryEndpoints(configured map[string]string) map[string]string {
	endpoints := make(map[string]string, len(configured))
	for chain, url := range configured {
		endpoints[chains.QueryName(chain)] = url
	}
	return endpoints
}

func runAudit(cmd *cobra.Command, args []string) {
	batchPath := args[0]

	logger, err := NewLogger(cmd.Flag("logLevel").Value.String())
	if err != nil {
		fmt.Println("Invalid log level")
		os.Exit(1)
	}

	v, err := config.InitFileConfig(cmd, config.ConfigOptions{
		FilePath:  cmd.Flag("config").Value.String(),
		EnvPrefix: config.EnvPrefix,
	})
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	environment, err := common.ParseEnvironment(*env)
	if err != nil {
		logger.Fatal("invalid environment", zap.Error(err))
	}
	registry, err := chains.Load(environment, *chainsFile)
	if err != nil {
		logger.Fatal("failed to load chain table", zap.Error(err))
	}

	policy := config.Policy{
		HubChain:           *hubChain,
		StrictFees:         *strictFees,
		GasCeilingMultiple: *gasCeilingMultiple,
		RefBlockMaxAge:     *refBlockMaxAge,
	}
	if err := policy.Validate(); err != nil {
		logger.Fatal("invalid policy", zap.Error(err))
	}
	if _, err := registry.ByName(policy.HubChain); err != nil {
		logger.Fatal("hub chain is not in the chain table", zap.String("hubChain", policy.HubChain), zap.Error(err))
	}

	txs, err := audit.LoadBatch(batchPath)
	if err != nil {
		logger.Fatal("failed to load batch", zap.Error(err))
	}

	endpoints := queryEndpoints(config.Endpoints(v))
	logger.Debug("audit configuration",
		zap.String("env", string(environment)),
		zap.String("chainsFile", *chainsFile),
		zap.Int("rpcEndpoints", len(endpoints)),
		zap.String("originTokensUrl", *originTokensURL),
		zap.String("hubChain", policy.HubChain),
		zap.Bool("strictFees", policy.StrictFees),
		zap.Uint64("gasCeilingMultiple", policy.GasCeilingMultiple),
		zap.Duration("refBlockMaxAge", policy.RefBlockMaxAge))

	var origin *chainquery.OriginTokenClient
	if *originTokensURL != "" {
		origin = chainquery.NewOriginTokenClient(*originTokensURL, logger)
	}
	evm := chainquery.NewEvmQuerier(logger, endpoints).WithRateLimit(*rpcRateLimit, *rpcBurst)
	client := chainquery.NewClient(evm, origin)

	sink := report.NewSink(logger, report.NewPrinter(os.Stdout, !*noColor))
	session := audit.NewSession(logger, registry, client, policy, sink)
	summary := session.Run(context.Background(), txs, batchPath)
	client.Close()

	if *out != "" {
		if err := summary.WriteJSON(*out); err != nil {
			logger.Error("failed to write report", zap.Error(err))
		}
	}
	if *metricsTextfile != "" {
		if err := prometheus.WriteToTextfile(*metricsTextfile, prometheus.DefaultGatherer); err != nil {
			logger.Error("failed to write metrics", zap.Error(err))
		}
	}

	if !summary.Go() {
		os.Exit(1)
	}
}
