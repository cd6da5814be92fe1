package chainquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethClient "github.com/ethereum/go-ethereum/ethclient"
	ethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// evmBackend is the subset of ethclient.Client used by the querier.
type evmBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

type dialFunc func(ctx context.Context, url string) (evmBackend, error)

func dialEthClient(ctx context.Context, url string) (evmBackend, error) {
	rawClient, err := ethRpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to dial %s: %w", url, err)
	}
	return ethClient.NewClient(rawClient), nil
}

// EvmQuerier answers nonce and contract call questions over JSON-RPC. Connections are opened on first use.
type EvmQuerier struct {
	logger    *zap.Logger
	endpoints map[string]string
	dial      dialFunc

	// limit and burst bound the request rate per chain. rate.Inf disables limiting.
	limit rate.Limit
	burst int

	mu       sync.Mutex
	clients  map[string]evmBackend
	limiters map[string]*rate.Limiter
}

// NewEvmQuerier creates a querier for the given chain name to RPC URL map.
func NewEvmQuerier(logger *zap.Logger, endpoints map[string]string) *EvmQuerier {
	return newEvmQuerier(logger, endpoints, dialEthClient)
}

func newEvmQuerier(logger *zap.Logger, endpoints map[string]string, dial dialFunc) *EvmQuerier {
	eps := make(map[string]string, len(endpoints))
	for chain, url := range endpoints {
		eps[strings.ToUpper(chain)] = url
	}
	return &EvmQuerier{
		logger:    logger,
		endpoints: eps,
		dial:      dial,
		limit:     rate.Inf,
		burst:     1,
		clients:   make(map[string]evmBackend),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// WithRateLimit caps requests to each chain at perSecond with the given burst. A non-positive perSecond
// removes the cap. It must be called before the first query.
func (q *EvmQuerier) WithRateLimit(perSecond float64, burst int) *EvmQuerier {
	if perSecond <= 0 {
		q.limit = rate.Inf
		return q
	}
	if burst < 1 {
		burst = 1
	}
	q.limit = rate.Limit(perSecond)
	q.burst = burst
	return q
}

// wait blocks until the chain's limiter admits one more request.
func (q *EvmQuerier) wait(ctx context.Context, chain string) error {
	q.mu.Lock()
	l, exists := q.limiters[chain]
	if !exists {
		l = rate.NewLimiter(q.limit, q.burst)
		q.limiters[chain] = l
	}
	q.mu.Unlock()

	if err := l.Wait(ctx); err != nil {
		return errors.Join(ErrUnavailable, fmt.Errorf("rate limit wait for chain %s: %w", chain, err))
	}
	return nil
}

func (q *EvmQuerier) client(ctx context.Context, chain string) (evmBackend, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if c, exists := q.clients[chain]; exists {
		return c, nil
	}
	url, exists := q.endpoints[chain]
	if !exists || url == "" {
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("%w for chain %s", ErrNoEndpoint, chain))
	}

	q.logger.Debug("dialing chain rpc", zap.String("chain", chain), zap.String("url", url))
	c, err := q.dial(ctx, url)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	q.clients[chain] = c
	return c, nil
}

func (q *EvmQuerier) Nonce(ctx context.Context, chain string, address string) (nonce uint64, err error) {
	defer func() { observe(chain, "nonce", err) }()

	c, err := q.client(ctx, chain)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, RPC_TIMEOUT)
	defer cancel()
	if err := q.wait(ctx, chain); err != nil {
		return 0, err
	}

	account := common.HexToAddress(chains.NormalizeAddress(address))
	nonce, err = c.PendingNonceAt(ctx, account)
	if err != nil {
		q.logger.Warn("nonce query failed",
			zap.String("chain", chain),
			zap.String("address", address),
			zap.Error(err))
		return 0, errors.Join(ErrUnavailable, err)
	}
	return nonce, nil
}

func (q *EvmQuerier) CallContract(
	ctx context.Context,
	chain string,
	contract string,
	contractAbi *abi.ABI,
	method string,
	args ...interface{},
) (out []interface{}, err error) {
	defer func() { observe(chain, method, err) }()

	calldata, err := contractAbi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	c, err := q.client(ctx, chain)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, RPC_TIMEOUT)
	defer cancel()
	if err := q.wait(ctx, chain); err != nil {
		return nil, err
	}

	to := common.HexToAddress(chains.NormalizeAddress(contract))
	evmCallMsg := ethereum.CallMsg{
		To:   &to,
		Data: calldata,
	}

	q.logger.Debug("calling contract",
		zap.String("chain", chain),
		zap.String("contract", to.Hex()),
		zap.String("method", method))

	result, err := c.CallContract(ctx, evmCallMsg, nil)
	if err != nil {
		return nil, classifyCallError(method, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s returned no data", ErrNotSupported, method)
	}

	out, err = contractAbi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s result could not be decoded: %v", ErrNotSupported, method, err)
	}
	return out, nil
}

// classifyCallError separates reverts, which are a negative answer from the contract,
// from transport and node failures.
func classifyCallError(method string, err error) error {
	var rpcErr ethRpc.Error
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Error())
		// Code 3 is the execution reverted error of geth compatible nodes.
		if rpcErr.ErrorCode() == 3 || strings.Contains(msg, "revert") || strings.Contains(msg, "invalid opcode") {
			return fmt.Errorf("%w: %s: %v", ErrNotSupported, method, err)
		}
	}
	return errors.Join(ErrUnavailable, fmt.Errorf("%s: %w", method, err))
}

func (q *EvmQuerier) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for chain, c := range q.clients {
		c.Close()
		delete(q.clients, chain)
	}
}
