package tokeninfo

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/zhwir/offline-tx-validator/pkg/chainquery"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMultiTokenName   = "Erc1155 token"
	defaultMultiTokenSymbol = ""
)

var ErrNotToken = errors.New("contract does not implement a known token standard")

// probe issues calls against a single contract.
type probe struct {
	querier chainquery.Querier
	chain   string
	address string
	account common.Address
}

func newProbe(q chainquery.Querier, chain, address string) *probe {
	return &probe{
		querier: q,
		chain:   chain,
		address: address,
		account: common.HexToAddress(chains.NormalizeAddress(address)),
	}
}

func (p *probe) call(ctx context.Context, contractAbi *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	return p.querier.CallContract(ctx, p.chain, p.address, contractAbi, method, args...)
}

func (p *probe) callString(ctx context.Context, method string) (string, error) {
	out, err := p.call(ctx, erc20Abi, method)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s returned %T", chainquery.ErrNotSupported, method, out[0])
	}
	return s, nil
}

func (p *probe) callBool(ctx context.Context, contractAbi *abi.ABI, method string, args ...interface{}) (bool, error) {
	out, err := p.call(ctx, contractAbi, method, args...)
	if err != nil {
		return false, err
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s returned %T", chainquery.ErrNotSupported, method, out[0])
	}
	return b, nil
}

// classifier is one attempt at recognising a token standard. It returns the token on a match, nil without error
// when the contract is not of this standard, or an error wrapping chainquery.ErrUnavailable when the question
// could not be answered.
type classifier func(ctx context.Context, p *probe) (*Info, error)

// classifiers are tried in order, the first match wins.
var classifiers = []classifier{
	classifyFungibleOrNFT,
	classifyMultiToken,
}

func classify(ctx context.Context, p *probe) (*Info, error) {
	for _, c := range classifiers {
		info, err := c(ctx, p)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, ErrNotToken
}

// negative turns a not-supported answer into "no match" and keeps transport failures as errors.
func negative(err error) error {
	if errors.Is(err, chainquery.ErrUnavailable) {
		return err
	}
	return nil
}

func classifyFungibleOrNFT(ctx context.Context, p *probe) (*Info, error) {
	var name, symbol string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		name, err = p.callString(gctx, "name")
		return err
	})
	g.Go(func() (err error) {
		symbol, err = p.callString(gctx, "symbol")
		return err
	})
	g.Go(func() error {
		_, err := p.call(gctx, erc20Abi, "balanceOf", p.account)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, negative(err)
	}

	var (
		decimals       uint8
		fungible, nft  bool
		errFungible    error
		errNonFungible error
	)
	sub, subctx := errgroup.WithContext(ctx)
	sub.Go(func() error {
		decimals, fungible, errFungible = probeFungible(subctx, p)
		return nil
	})
	sub.Go(func() error {
		nft, errNonFungible = probeNonFungible(subctx, p)
		return nil
	})
	_ = sub.Wait()

	switch {
	case fungible:
		return &Info{Name: name, Symbol: symbol, Kind: KindErc20, Decimals: decimals}, nil
	case nft:
		return &Info{Name: name, Symbol: symbol, Kind: KindErc721}, nil
	}
	if err := negative(errFungible); err != nil {
		return nil, err
	}
	return nil, negative(errNonFungible)
}

func probeFungible(ctx context.Context, p *probe) (decimals uint8, ok bool, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := p.call(gctx, erc20Abi, "decimals")
		if err != nil {
			return err
		}
		d, isUint8 := out[0].(uint8)
		if !isUint8 {
			return fmt.Errorf("%w: decimals returned %T", chainquery.ErrNotSupported, out[0])
		}
		decimals = d
		return nil
	})
	g.Go(func() error {
		_, err := p.call(gctx, erc20Abi, "totalSupply")
		return err
	})
	g.Go(func() error {
		_, err := p.call(gctx, erc20Abi, "allowance", p.account, p.account)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, false, err
	}
	return decimals, true, nil
}

func probeNonFungible(ctx context.Context, p *probe) (bool, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := p.call(gctx, erc721Abi, "isApprovedForAll", p.account, p.account)
		return err
	})
	g.Go(func() error {
		_, err := p.call(gctx, erc721Abi, "supportsInterface", erc721ProbeInterfaceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return true, nil
}

func classifyMultiToken(ctx context.Context, p *probe) (*Info, error) {
	var supported bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		supported, err = p.callBool(gctx, erc1155Abi, "supportsInterface", erc1155InterfaceID)
		return err
	})
	g.Go(func() error {
		_, err := p.call(gctx, erc1155Abi, "balanceOf", p.account, big.NewInt(0))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, negative(err)
	}
	if !supported {
		return nil, nil
	}

	info := &Info{Name: defaultMultiTokenName, Symbol: defaultMultiTokenSymbol, Kind: KindErc1155}
	if name, err := p.callString(ctx, "name"); err == nil {
		info.Name = name
	}
	if symbol, err := p.callString(ctx, "symbol"); err == nil {
		info.Symbol = symbol
	}
	return info, nil
}
