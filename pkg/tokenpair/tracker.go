// Package tokenpair tracks the token pairs defined by a batch and checks that every definition agrees.
package tokenpair

import (
	"context"
	"sort"
	"strings"

	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/operation"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"github.com/zhwir/offline-tx-validator/pkg/tokeninfo"
	"go.uber.org/zap"
)

// Outcome of a successful registration.
type Outcome int

const (
	// OutcomeDefined is the first sighting of a pair id in the batch.
	OutcomeDefined Outcome = iota
	// OutcomeConfirmed is a later sighting that agrees with the first definition.
	OutcomeConfirmed
)

// Record is the canonical definition of a pair id in this run.
type Record struct {
	Pair *operation.TokenPair
	// DefinedOn is the chain of the transaction that first defined the pair.
	DefinedOn string
	// DefinedAt is the batch index of that transaction.
	DefinedAt int

	pending map[string]bool
}

// Pending lists the chains still expected to configure the pair, sorted by name.
func (r *Record) Pending() []string {
	out := make([]string, 0, len(r.pending))
	for chain := range r.pending {
		out = append(out, chain)
	}
	sort.Strings(out)
	return out
}

// Tracker holds the token pair records of one audit run. It is not safe for concurrent use.
type Tracker struct {
	logger   *zap.Logger
	registry *chains.Registry
	resolver *tokeninfo.Resolver
	hubChain string

	records map[string]*Record
	order   []string
}

func NewTracker(logger *zap.Logger, registry *chains.Registry, resolver *tokeninfo.Resolver, hubChain string) *Tracker {
	return &Tracker{
		logger:   logger,
		registry: registry,
		resolver: resolver,
		hubChain: strings.ToUpper(strings.TrimSpace(hubChain)),
		records:  make(map[string]*Record),
	}
}

// Record returns the canonical record of a pair id.
func (t *Tracker) Record(id string) (*Record, bool) {
	r, exists := t.records[id]
	return r, exists
}

// Register checks a token pair definition sent to reporting. A returned abort leaves every record untouched.
func (t *Tracker) Register(
	ctx context.Context,
	rep tokeninfo.Reporter,
	reporting *chains.Descriptor,
	index int,
	pair *operation.TokenPair,
) (Outcome, *report.Abort) {
	if existing, exists := t.records[pair.ID]; exists {
		if existing.Pair.Snapshot() != pair.Snapshot() {
			rep.Report(report.SeverityDetail, report.ClassConsistency, "-%s", existing.Pair.Snapshot())
			rep.Report(report.SeverityDetail, report.ClassConsistency, "+%s", pair.Snapshot())
			return 0, report.Consistency("tokenPair %s info not match", pair.ID)
		}
		if abort := t.checkChainIDs(reporting, pair); abort != nil {
			return 0, abort
		}
		delete(existing.pending, reporting.Name)
		t.logger.Debug("token pair confirmed",
			zap.String("id", pair.ID),
			zap.String("chain", reporting.Name),
			zap.Strings("pending", existing.Pending()))
		return OutcomeConfirmed, nil
	}

	if abort := t.checkChainIDs(reporting, pair); abort != nil {
		return 0, abort
	}

	record := &Record{
		Pair:      pair,
		DefinedOn: reporting.Name,
		DefinedAt: index,
		pending:   t.expectedChains(reporting, pair),
	}
	t.records[pair.ID] = record
	t.order = append(t.order, pair.ID)
	t.logger.Debug("token pair defined",
		zap.String("id", pair.ID),
		zap.String("chain", reporting.Name),
		zap.Strings("pending", record.Pending()))

	t.resolveTokens(ctx, rep, pair)
	return OutcomeDefined, nil
}

// checkChainIDs enforces that a pair connects two different chains and, unless sent to the hub,
// that the receiving chain is one of them.
func (t *Tracker) checkChainIDs(reporting *chains.Descriptor, pair *operation.TokenPair) *report.Abort {
	from, errFrom := chains.ParseChainID(pair.FromChainID)
	to, errTo := chains.ParseChainID(pair.ToChainID)
	if errFrom != nil || errTo != nil || from == to {
		return report.Structural("invalid fromChainId(%s) or toChainId(%s)", pair.FromChainID, pair.ToChainID)
	}
	if reporting.Name != t.hubChain && from != reporting.ChainID && to != reporting.ChainID {
		return report.Structural("invalid fromChainId(%s) or toChainId(%s)", pair.FromChainID, pair.ToChainID)
	}
	return nil
}

// expectedChains computes the chains that must still configure a newly defined pair: both endpoints
// and the hub, minus the defining chain.
func (t *Tracker) expectedChains(reporting *chains.Descriptor, pair *operation.TokenPair) map[string]bool {
	pending := make(map[string]bool)
	hubInvolved := reporting.Name == t.hubChain

	for _, id := range []string{pair.FromChainID, pair.ToChainID} {
		d, err := t.registry.ByChainIDString(id)
		if err != nil {
			continue
		}
		if d.Name == t.hubChain {
			hubInvolved = true
		}
		if d.Name != reporting.Name {
			pending[d.Name] = true
		}
	}
	if !hubInvolved {
		if _, err := t.registry.ByName(t.hubChain); err == nil {
			pending[t.hubChain] = true
		}
	}
	return pending
}

// resolveTokens resolves the ancestor, source and destination tokens in that order and checks that they agree.
func (t *Tracker) resolveTokens(ctx context.Context, rep tokeninfo.Reporter, pair *operation.TokenPair) {
	a := pair.Ancestor
	requests := []tokeninfo.Request{
		{Leg: tokeninfo.LegAncestor, AncestorChainID: a.ChainID, ChainID: a.ChainID, Address: a.Account, Symbol: a.Symbol},
		{Leg: tokeninfo.LegFrom, AncestorChainID: a.ChainID, ChainID: pair.FromChainID, Address: pair.FromAccount, Symbol: a.Symbol},
		{Leg: tokeninfo.LegTo, AncestorChainID: a.ChainID, ChainID: pair.ToChainID, Address: pair.ToAccount, Symbol: a.Symbol},
	}

	var first *tokeninfo.Info
	for _, req := range requests {
		info := t.resolver.Resolve(ctx, rep, req)
		if info == nil {
			continue
		}
		if first == nil {
			first = info
			continue
		}
		if info.Kind != first.Kind {
			rep.Report(report.SeverityDetail, report.ClassAdvisory, "tokenPair %s token type not match: %s, expected %s", pair.ID, info.Kind, first.Kind)
		}
		if info.Decimals != first.Decimals {
			rep.Report(report.SeverityWarn, report.ClassAdvisory, "tokenPair %s token decimals not match: %d, expected %d", pair.ID, info.Decimals, first.Decimals)
		}
	}
}

// Unresolved is a chain that never configured a pair defined in the batch.
type Unresolved struct {
	PairID string
	Chain  *chains.Descriptor
}

// Unresolved lists the outstanding pair configurations in definition order.
func (t *Tracker) Unresolved() []Unresolved {
	var out []Unresolved
	for _, id := range t.order {
		for _, name := range t.records[id].Pending() {
			d, err := t.registry.ByName(name)
			if err != nil {
				continue
			}
			out = append(out, Unresolved{PairID: id, Chain: d})
		}
	}
	return out
}

// ReportUnresolved reports one finding per outstanding pair configuration. A chain without an admin account
// cannot send the configuration itself, which makes the gap a defect rather than a reminder.
func (t *Tracker) ReportUnresolved(rep tokeninfo.Reporter) int {
	unresolved := t.Unresolved()
	for _, u := range unresolved {
		if u.Chain.HasAdmin() {
			rep.Report(report.SeverityWarn, report.ClassAdvisory, "tokenPair %s still needs to be configured on chain %s", u.PairID, u.Chain.Name)
		} else {
			rep.Report(report.SeverityDetail, report.ClassAdvisory, "tokenPair %s cannot be configured on chain %s: no admin", u.PairID, u.Chain.Name)
		}
	}
	return len(unresolved)
}
