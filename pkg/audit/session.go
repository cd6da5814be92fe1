// Package audit runs the ordered per-transaction checks of a batch and carries the state that spans transactions.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zhwir/offline-tx-validator/pkg/chainquery"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/config"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"github.com/zhwir/offline-tx-validator/pkg/tokeninfo"
	"github.com/zhwir/offline-tx-validator/pkg/tokenpair"
	"go.uber.org/zap"
)

const unresolvedSection = "unresolved token pairs"

// Session is one audit run. Transactions are processed strictly in batch order, so a session is not safe
// for concurrent use.
type Session struct {
	logger   *zap.Logger
	registry *chains.Registry
	querier  chainquery.Querier
	policy   config.Policy
	sink     *report.Sink

	resolver *tokeninfo.Resolver
	tracker  *tokenpair.Tracker

	// nonces holds the next expected nonce per chain and sender.
	nonces map[string]uint64
	// refBlock is the last reference block seen in the run.
	refBlock *RefBlock

	now func() time.Time
}

func NewSession(
	logger *zap.Logger,
	registry *chains.Registry,
	querier chainquery.Querier,
	policy config.Policy,
	sink *report.Sink,
) *Session {
	resolver := tokeninfo.NewResolver(logger.With(zap.String("component", "tokeninfo")), registry, querier)
	return &Session{
		logger:   logger,
		registry: registry,
		querier:  querier,
		policy:   policy,
		sink:     sink,
		resolver: resolver,
		tracker:  tokenpair.NewTracker(logger.With(zap.String("component", "tokenpair")), registry, resolver, policy.HubChain),
		nonces:   make(map[string]uint64),
		now:      time.Now,
	}
}

// Tracker exposes the token pair records of the run.
func (s *Session) Tracker() *tokenpair.Tracker {
	return s.tracker
}

// Run audits txs in order and returns the run summary. Per-transaction failures never stop the run.
func (s *Session) Run(ctx context.Context, txs []Transaction, source string) *report.Summary {
	runID := uuid.New()
	s.logger.Info("starting audit run",
		zap.Stringer("runId", runID),
		zap.String("source", source),
		zap.Int("transactions", len(txs)))

	s.sink.Header(len(txs), source)
	for i := range txs {
		s.sink.Begin(i, txs[i].Chain, txs[i].Topic)
		if abort := s.audit(ctx, i, &txs[i]); abort != nil {
			s.logger.Debug("transaction aborted", zap.Int("index", i), zap.Error(abort))
			s.sink.Fail(abort)
		}
		s.sink.End()
	}

	if len(s.tracker.Unresolved()) > 0 {
		s.sink.BeginRun(unresolvedSection)
		s.tracker.ReportUnresolved(s.sink)
	}

	summary := s.sink.Summarize(runID, source)
	s.logger.Info("audit run finished",
		zap.Stringer("runId", runID),
		zap.String("verdict", string(summary.Verdict)),
		zap.Int("clean", summary.Clean),
		zap.Int("notClean", summary.NotClean),
		zap.Int("aborted", summary.Aborted))
	return summary
}

// txContext is what the checks of one transaction share.
type txContext struct {
	index int
	tx    *Transaction
	chain *chains.Descriptor
}

func (s *Session) audit(ctx context.Context, index int, tx *Transaction) *report.Abort {
	tc := &txContext{index: index, tx: tx}
	for _, c := range checks {
		if abort := c.run(ctx, s, tc); abort != nil {
			return abort
		}
		s.logger.Debug("check done", zap.Int("index", index), zap.String("check", c.name))
	}
	return nil
}

func nonceKey(chain, address string) string {
	return chain + strings.ToLower(address)
}
