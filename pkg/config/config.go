package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultHubChain           = "WAN"
	DefaultGasCeilingMultiple = 10
	DefaultRefBlockMaxAge     = 8 * time.Hour
	EnvPrefix                 = "AUDIT"
)

var ErrInvalidPolicy = errors.New("invalid audit policy")

// Policy holds the deployment choices that change the severity of a check but not what is checked.
type Policy struct {
	// HubChain may register a token pair that connects two other chains.
	HubChain string
	// StrictFees turns a gas price or gas limit below the configured floor into a fatal finding.
	StrictFees bool
	// GasCeilingMultiple warns when gas price exceeds this multiple of the floor. Zero disables the check.
	GasCeilingMultiple uint64
	// RefBlockMaxAge is how old a reference block may be before the transaction needs a refresh.
	RefBlockMaxAge time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		HubChain:           DefaultHubChain,
		GasCeilingMultiple: DefaultGasCeilingMultiple,
		RefBlockMaxAge:     DefaultRefBlockMaxAge,
	}
}

func (p Policy) Validate() error {
	if strings.TrimSpace(p.HubChain) == "" {
		return fmt.Errorf("%w: hub chain is empty", ErrInvalidPolicy)
	}
	if p.RefBlockMaxAge <= 0 {
		return fmt.Errorf("%w: refBlockMaxAge must be positive, got %s", ErrInvalidPolicy, p.RefBlockMaxAge)
	}
	return nil
}

// ConfigOptions is used to configure the loading of config parameters by "audit".
type ConfigOptions struct {
	// FilePath is the path to the config file to be loaded, including the file name and extension.
	// The file may be any of the types supported by Viper (such as .yaml or .json).
	FilePath string

	// EnvPrefix is the prefix to be added to environment variables to load variables that
	// override config file settings. For instance, setting it to "AUDIT" will cause it
	// to look for variables like "AUDIT_HUBCHAIN".
	EnvPrefix string
}

// InitFileConfig initializes configuration according to the following precedence:
// 1. Command line flags
// 2. Environment variables
// 3. Config file
// 4. Cobra default values
//
// The returned viper instance also exposes keys that have no flag, such as the rpc endpoint map.
func InitFileConfig(cmd *cobra.Command, options ConfigOptions) (*viper.Viper, error) {
	v := viper.New()

	if options.FilePath != "" {
		v.SetConfigFile(options.FilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(options.EnvPrefix)
	v.AutomaticEnv()

	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}

	return v, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		configName := f.Name

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(configName) {
			val := v.Get(configName)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				errs = append(errs, fmt.Errorf("failed to bind flag %s: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

// Endpoints returns the chain name to JSON-RPC URL map found under the "rpc" key. Chain names are upper-cased.
func Endpoints(v *viper.Viper) map[string]string {
	endpoints := make(map[string]string)
	for chain, url := range v.GetStringMapString("rpc") {
		endpoints[strings.ToUpper(chain)] = url
	}
	return endpoints
}
