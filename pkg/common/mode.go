package common

import (
	"fmt"
	"strings"
)

// Environment selects the built-in chain table the auditor runs against.
type Environment string

const (
	MainNet Environment = "mainnet"
	TestNet Environment = "testnet"
	GoTest  Environment = "unit-test"
)

// ParseEnvironment parses a string into the corresponding Environment value, allowing various reasonable variations.
func ParseEnvironment(str string) (Environment, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	if str == "prod" || str == "mainnet" {
		return MainNet, nil
	}
	if str == "test" || str == "testnet" {
		return TestNet, nil
	}
	if str == "unit-test" || str == "gotest" {
		return GoTest, nil
	}
	return MainNet, fmt.Errorf("invalid environment string: %s", str)
}
