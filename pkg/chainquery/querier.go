// Package chainquery is the auditor's only window onto live chain state.
package chainquery

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	RPC_TIMEOUT = 10 * time.Second
)

var (
	// ErrUnavailable means the question could not be answered: no endpoint, transport failure, node error.
	ErrUnavailable = errors.New("chain query unavailable")
	// ErrNotSupported means the contract answered but does not implement the queried method.
	ErrNotSupported = errors.New("contract method not supported")
	ErrNoEndpoint   = errors.New("no rpc endpoint configured")
)

// Querier answers the live-state questions an audit asks. Chain names are the transport's names,
// see chains.QueryName.
type Querier interface {
	// Nonce returns the next nonce the chain expects from address.
	Nonce(ctx context.Context, chain string, address string) (uint64, error)
	// CallContract executes a read-only call of method on contract and returns the unpacked outputs.
	CallContract(ctx context.Context, chain string, contract string, contractAbi *abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	// RegisteredOriginTokens lists the token contracts already registered as origin tokens on chain.
	RegisteredOriginTokens(ctx context.Context, chain string) ([]string, error)
}

// Client combines the EVM JSON-RPC querier with the origin token listing.
type Client struct {
	*EvmQuerier
	origin *OriginTokenClient
}

func NewClient(evm *EvmQuerier, origin *OriginTokenClient) *Client {
	return &Client{EvmQuerier: evm, origin: origin}
}

func (c *Client) RegisteredOriginTokens(ctx context.Context, chain string) ([]string, error) {
	if c.origin == nil {
		return nil, errors.Join(ErrUnavailable, errors.New("origin token listing not configured"))
	}
	return c.origin.RegisteredOriginTokens(ctx, chain)
}

func (c *Client) Close() {
	c.EvmQuerier.Close()
}
