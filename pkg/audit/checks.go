package audit

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/operation"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"go.uber.org/zap"
)

// check is one step of the pipeline. A returned abort stops the transaction.
type check struct {
	name string
	run  func(ctx context.Context, s *Session, tc *txContext) *report.Abort
}

// checks run in this order; later checks rely on tc.chain being set by checkChain.
var checks = []check{
	{"chain", checkChain},
	{"walletId", checkWalletID},
	{"from", checkFrom},
	{"nonce", checkNonce},
	{"fees", checkFees},
	{"payload", checkPayload},
}

func checkChain(_ context.Context, s *Session, tc *txContext) *report.Abort {
	d, err := s.registry.ByName(tc.tx.Chain)
	if err != nil {
		return report.Structural("invalid chain: %s", tc.tx.Chain)
	}
	tc.chain = d
	return nil
}

func checkWalletID(_ context.Context, _ *Session, tc *txContext) *report.Abort {
	if !tc.chain.ChecksWalletID() {
		return nil
	}
	if !tc.tx.ChainID.Equal(tc.chain.WalletID) {
		return report.Structural("invalid chainId: %s, expected %s", tc.tx.ChainID, tc.chain.WalletID)
	}
	return nil
}

func checkFrom(_ context.Context, _ *Session, tc *txContext) *report.Abort {
	if !tc.chain.HasAdmin() {
		return nil
	}
	if !chains.SameAddress(tc.tx.From, tc.chain.Admin) {
		return report.Structural("invalid from: %s, expected %s", tc.tx.From, tc.chain.Admin)
	}
	return nil
}

// checkNonce compares the nonce with the next expected one. Skipped nonces are legitimate, so a mismatch
// is never fatal. The expectation always moves to the observed nonce plus one.
func checkNonce(ctx context.Context, s *Session, tc *txContext) *report.Abort {
	d := tc.chain
	if !d.TracksNonce() {
		return nil
	}
	observed, err := tc.tx.Nonce.Uint64()
	if err != nil {
		return report.Structural("invalid nonce: %s", tc.tx.Nonce)
	}

	key := nonceKey(d.Name, tc.tx.From)
	expected, seen := s.nonces[key]
	if !seen {
		chainNonce, err := s.querier.Nonce(ctx, chains.QueryName(d.Name), tc.tx.From)
		if err != nil {
			s.logger.Warn("nonce query failed", zap.String("chain", d.Name), zap.String("address", tc.tx.From), zap.Error(err))
			s.sink.Report(report.SeverityDetail, report.ClassUnknown, "chain %s %s nonce unknown, chain query unavailable", d.Name, tc.tx.From)
			s.nonces[key] = observed + 1
			return nil
		}
		expected = chainNonce
	}
	if observed != expected {
		s.sink.Report(report.SeverityDetail, report.ClassDrift, "invalid chain %s %s nonce: %s, expected %d", d.Name, tc.tx.From, tc.tx.Nonce, expected)
	}
	s.nonces[key] = observed + 1
	return nil
}

func checkFees(_ context.Context, s *Session, tc *txContext) *report.Abort {
	d := tc.chain
	switch d.FeeModel() {
	case chains.FeeGas:
		if abort := s.checkGasPrice(tc); abort != nil {
			return abort
		}
		return s.checkGasLimit(tc)
	case chains.FeeFeeLimit:
		feeLimit, err := tc.tx.FeeLimit.Uint256()
		if err != nil {
			return report.Structural("invalid feeLimit: %s", tc.tx.FeeLimit)
		}
		if feeLimit.Lt(uint256.NewInt(d.FeeLimit)) {
			return report.Structural("invalid feeLimit: %s, at least %d", tc.tx.FeeLimit, d.FeeLimit)
		}
		if d.RefBlock {
			return s.checkRefBlock(tc)
		}
	}
	return nil
}

// belowFloor reports a fee field under its configured minimum, fatal only under strict fee policy.
func (s *Session) belowFloor(field string, value Quantity, floor uint64) *report.Abort {
	if s.policy.StrictFees {
		return report.Structural("invalid %s: %s, at least %d", field, value, floor)
	}
	s.sink.Report(report.SeverityWarn, report.ClassAdvisory, "invalid %s: %s, at least %d", field, value, floor)
	return nil
}

func (s *Session) checkGasPrice(tc *txContext) *report.Abort {
	d := tc.chain
	if d.GasPrice == 0 {
		return nil
	}
	price, err := tc.tx.GasPrice.Uint256()
	if err != nil {
		return report.Structural("invalid gasPrice: %s", tc.tx.GasPrice)
	}
	floor := uint256.NewInt(d.GasPrice)
	if price.Lt(floor) {
		return s.belowFloor("gasPrice", tc.tx.GasPrice, d.GasPrice)
	}
	if s.policy.GasCeilingMultiple > 0 {
		ceiling := new(uint256.Int).Mul(floor, uint256.NewInt(s.policy.GasCeilingMultiple))
		if price.Gt(ceiling) {
			s.sink.Report(report.SeverityWarn, report.ClassAdvisory, "gasPrice %s is more than %d times the minimum %d", tc.tx.GasPrice, s.policy.GasCeilingMultiple, d.GasPrice)
		}
	}
	return nil
}

func (s *Session) checkGasLimit(tc *txContext) *report.Abort {
	d := tc.chain
	if d.GasLimit == 0 {
		return nil
	}
	limit, err := tc.tx.GasLimit.Uint256()
	if err != nil {
		return report.Structural("invalid gasLimit: %s", tc.tx.GasLimit)
	}
	if limit.Lt(uint256.NewInt(d.GasLimit)) {
		return s.belowFloor("gasLimit", tc.tx.GasLimit, d.GasLimit)
	}
	return nil
}

// checkRefBlock rejects the exact reuse of the previous reference block and asks for a refresh when the
// block is from the future or older than the configured age.
func (s *Session) checkRefBlock(tc *txContext) *report.Abort {
	rb := tc.tx.RefBlock
	if rb == nil {
		return report.Structural("invalid refBlock: missing")
	}
	if rb.Same(s.refBlock) {
		return report.Structural("refBlock not match")
	}
	s.refBlock = rb

	ts, err := rb.Timestamp.Uint64()
	if err != nil {
		return report.Structural("invalid refBlock timestamp: %s", rb.Timestamp)
	}
	now := uint64(s.now().UnixMilli())
	if now < ts || now-ts > uint64(s.policy.RefBlockMaxAge.Milliseconds()) {
		s.sink.Report(report.SeverityWarn, report.ClassAdvisory, "need update refBlock")
	}
	return nil
}

// checkPayload routes the operation: token pair admin calls are validated in full, anything else is left
// to a human.
func checkPayload(ctx context.Context, s *Session, tc *txContext) *report.Abort {
	call, err := operation.Decode(tc.tx.Abi, tc.tx.Params)
	if err != nil {
		return report.Structural("invalid abi: %v", err)
	}

	switch c := call.(type) {
	case *operation.AddTokenPair:
		return s.checkTokenPair(ctx, tc, &c.TokenPairCall)
	case *operation.UpdateTokenPair:
		return s.checkTokenPair(ctx, tc, &c.TokenPairCall)
	default:
		s.sink.Report(report.SeverityWarn, report.ClassManualReview, "need manually validate %s tx", call.Name())
		return nil
	}
}

func (s *Session) checkTokenPair(ctx context.Context, tc *txContext, call *operation.TokenPairCall) *report.Abort {
	d := tc.chain
	if !chains.SameAddress(tc.tx.To, d.TokenManagerProxy) {
		return report.Structural("invalid to: %s, expected %s", tc.tx.To, d.TokenManagerProxy)
	}
	if _, err := call.Encode(); err != nil {
		s.logger.Debug("encode failed", zap.Int("index", tc.index), zap.Error(err))
		return report.Structural("invalid params, encodeABI error")
	}
	pair, err := call.TokenPair()
	if err != nil {
		return report.Structural("invalid params: %v", err)
	}
	_, abort := s.tracker.Register(ctx, s.sink, d, tc.index, pair)
	return abort
}
