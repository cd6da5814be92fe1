// Package tokeninfo resolves the identity of the tokens a token pair references.
package tokeninfo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zhwir/offline-tx-validator/pkg/chainquery"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"github.com/zhwir/offline-tx-validator/pkg/xrpl"
	"go.uber.org/zap"
)

// Kind is the token standard a contract implements.
type Kind string

const (
	KindErc20   Kind = "Erc20"
	KindErc721  Kind = "Erc721"
	KindErc1155 Kind = "Erc1155"
)

type Info struct {
	Name     string
	Symbol   string
	Kind     Kind
	Decimals uint8
}

// Leg is the position of a token inside a token pair.
type Leg string

const (
	LegAncestor Leg = "ancestor"
	LegFrom     Leg = "fromAccount"
	LegTo       Leg = "toAccount"
)

// Request asks for the identity of one token pair leg.
type Request struct {
	Leg             Leg
	AncestorChainID string
	ChainID         string
	Address         string
	// Symbol is the ancestor symbol the token is expected to carry.
	Symbol string
}

// Reporter receives non-fatal findings. *report.Sink implements it.
type Reporter interface {
	Report(severity report.Severity, class report.Class, format string, args ...interface{})
}

type originList struct {
	tokens []string
	err    error
}

// Resolver resolves and caches token identities for one audit run. It is not safe for concurrent use.
type Resolver struct {
	logger   *zap.Logger
	registry *chains.Registry
	querier  chainquery.Querier

	// cache holds one entry per (chain id, address). A nil entry marks a token that is not resolvable.
	cache   map[string]*Info
	origins map[string]originList
}

func NewResolver(logger *zap.Logger, registry *chains.Registry, querier chainquery.Querier) *Resolver {
	return &Resolver{
		logger:   logger,
		registry: registry,
		querier:  querier,
		cache:    make(map[string]*Info),
		origins:  make(map[string]originList),
	}
}

func sameChainID(a, b string) bool {
	ia, errA := chains.ParseChainID(a)
	ib, errB := chains.ParseChainID(b)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return ia == ib
}

func cacheKey(chainID, address string) string {
	if id, err := chains.ParseChainID(chainID); err == nil {
		chainID = fmt.Sprintf("%d", id)
	}
	return chainID + "-" + strings.ToLower(strings.TrimSpace(address))
}

// Cached reports whether the token was already resolved in this run, and its identity.
func (r *Resolver) Cached(chainID, address string) (*Info, bool) {
	info, exists := r.cache[cacheKey(chainID, address)]
	return info, exists
}

// Resolve returns the identity of the requested token, or nil when it is not a resolvable contract.
// Each (chain, address) is resolved at most once per run; later requests return the cached result
// without reporting again.
func (r *Resolver) Resolve(ctx context.Context, rep Reporter, req Request) *Info {
	key := cacheKey(req.ChainID, req.Address)
	if info, exists := r.cache[key]; exists {
		r.logger.Debug("token found in cache, returning", zap.String("key", key))
		return info
	}

	info := r.resolve(ctx, rep, req)
	r.cache[key] = info
	if info == nil {
		return nil
	}

	d, _ := r.registry.ByChainIDString(req.ChainID)
	r.checkSymbol(rep, d, req, info)
	r.checkProvenance(ctx, rep, d, req, info)
	return info
}

func (r *Resolver) resolve(ctx context.Context, rep Reporter, req Request) *Info {
	d, err := r.registry.ByChainIDString(req.ChainID)
	if err != nil {
		rep.Report(report.SeverityDetail, report.ClassStructural, "%s validateToken invalid chainId: %s", req.Leg, req.ChainID)
		return nil
	}

	if chains.IsZeroAddress(req.Address) {
		if req.Leg == LegTo && !r.isNativeLeg(d, req) {
			rep.Report(report.SeverityDetail, report.ClassAdvisory, "invalid chain %s %s toAccount: %s", d.Name, req.Symbol, req.Address)
		}
		return nil
	}

	if !d.HasContracts() {
		r.reportNonContractToken(rep, d, req)
		return nil
	}

	queryName := chains.QueryName(d.Name)
	r.logger.Debug("classifying token",
		zap.String("chain", queryName),
		zap.String("leg", string(req.Leg)),
		zap.String("address", req.Address))

	info, err := classify(ctx, newProbe(r.querier, queryName, req.Address))
	switch {
	case err == nil:
		return info
	case errors.Is(err, chainquery.ErrUnavailable):
		r.logger.Warn("token classification unavailable", zap.String("chain", d.Name), zap.String("address", req.Address), zap.Error(err))
		rep.Report(report.SeverityDetail, report.ClassUnknown, "chain %s %s token %s unknown, chain query unavailable", d.Name, req.Symbol, req.Address)
	default:
		rep.Report(report.SeverityDetail, report.ClassAdvisory, "invalid chain %s %s token: %s", d.Name, req.Symbol, req.Address)
	}
	return nil
}

func (r *Resolver) isNativeLeg(d *chains.Descriptor, req Request) bool {
	ancestorChainID, err := chains.ParseChainID(req.AncestorChainID)
	if err != nil {
		return false
	}
	return d.IsNative(ancestorChainID, req.Symbol)
}

func (r *Resolver) reportNonContractToken(rep Reporter, d *chains.Descriptor, req Request) {
	if d.Name == "XRP" {
		token := xrpl.ParseTokenPairAccount(req.Address, true)
		rep.Report(report.SeverityWarn, report.ClassManualReview, "need manually validate %s token: %s => %s", d.Name, token.Identifier(), token.ExplorerURL())
		return
	}
	rep.Report(report.SeverityWarn, report.ClassManualReview, "need manually validate %s token: %s", d.Name, req.Address)
}

func (r *Resolver) checkSymbol(rep Reporter, d *chains.Descriptor, req Request, info *Info) {
	if info.Symbol == "" {
		return
	}
	if !strings.Contains(strings.ToLower(info.Symbol), strings.ToLower(req.Symbol)) {
		rep.Report(report.SeverityWarn, report.ClassAdvisory, "chain %s %s token %s symbol not match: %s, ancestor %s", d.Name, req.Symbol, req.Address, info.Symbol, req.Symbol)
	}
}

// checkProvenance verifies that a wrapped token is controlled by the chain's token manager.
func (r *Resolver) checkProvenance(ctx context.Context, rep Reporter, d *chains.Descriptor, req Request, info *Info) {
	if sameChainID(req.ChainID, req.AncestorChainID) {
		return
	}

	expected := d.ExpectedTokenOwner()
	origins := r.registeredOrigins(ctx, d)
	if origins.err != nil {
		rep.Report(report.SeverityDetail, report.ClassUnknown, "chain %s %s token %s provenance unknown, registered origin tokens unavailable, expected %s", d.Name, req.Symbol, req.Address, expected)
		return
	}
	for _, origin := range origins.tokens {
		if chains.SameAddress(origin, req.Address) {
			return
		}
	}

	p := newProbe(r.querier, chains.QueryName(d.Name), req.Address)
	if info.Kind == KindErc20 {
		out, err := p.call(ctx, ownerAbi, "owner")
		if err != nil {
			r.logger.Debug("owner query failed", zap.String("chain", d.Name), zap.String("address", req.Address), zap.Error(err))
			rep.Report(report.SeverityDetail, report.ClassUnknown, "chain %s wrapped %s token %s owner unknown, expected %s", d.Name, req.Symbol, req.Address, expected)
			return
		}
		owner, _ := out[0].(common.Address)
		if !chains.SameAddress(owner.Hex(), expected) {
			rep.Report(report.SeverityDetail, report.ClassAdvisory, "chain %s wrapped %s token %s owner not match: %s, expected %s", d.Name, req.Symbol, req.Address, owner.Hex(), expected)
		}
		return
	}

	expectedAccount := common.HexToAddress(chains.NormalizeAddress(expected))
	isAdmin, err := p.callBool(ctx, ownerAbi, "hasRole", defaultAdminRole, expectedAccount)
	if err != nil {
		r.logger.Debug("hasRole query failed", zap.String("chain", d.Name), zap.String("address", req.Address), zap.Error(err))
		rep.Report(report.SeverityDetail, report.ClassUnknown, "chain %s wrapped %s token %s admin unknown, expected %s", d.Name, req.Symbol, req.Address, expected)
		return
	}
	if !isAdmin {
		rep.Report(report.SeverityDetail, report.ClassAdvisory, "chain %s wrapped %s token %s admin not match, expected %s", d.Name, req.Symbol, req.Address, expected)
	}
}

func (r *Resolver) registeredOrigins(ctx context.Context, d *chains.Descriptor) originList {
	if cached, exists := r.origins[d.Name]; exists {
		return cached
	}
	tokens, err := r.querier.RegisteredOriginTokens(ctx, chains.QueryName(d.Name))
	list := originList{tokens: tokens, err: err}
	r.origins[d.Name] = list
	return list
}
