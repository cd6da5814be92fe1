package chains

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"github.com/zhwir/offline-tx-validator/pkg/common"
)

var ErrEmptyChainsFile = errors.New("chains file has no chain descriptors")

// LoadFile reads a chain table from any file format viper understands. Descriptors live under the "chains" key:
//
//	chains:
//	  - name: ETH
//	    chainId: 2147483708
//	    walletId: "1"
//	    admin: "0x..."
//	    gasPrice: 1000000000
//	    gasLimit: 300000
//	    tokenManagerProxy: "0x..."
//	    native: {chainId: 2147483708, symbol: ETH}
func LoadFile(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read chains file %s: %w", path, err)
	}

	var descriptors []Descriptor
	if err := v.UnmarshalKey("chains", &descriptors); err != nil {
		return nil, fmt.Errorf("failed to decode chains file %s: %w", path, err)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyChainsFile, path)
	}

	return NewRegistry(descriptors)
}

// Load returns the chain table from path when given, otherwise the built-in table of env.
func Load(env common.Environment, path string) (*Registry, error) {
	if path != "" {
		return LoadFile(path)
	}
	return ForEnvironment(env)
}
