package report

import (
	"fmt"

	"go.uber.org/zap"
)

// TxResult is the outcome of one audited transaction.
type TxResult struct {
	Index    int    `json:"index"`
	Chain    string `json:"chain"`
	Topic    string `json:"topic"`
	Clean    bool   `json:"clean"`
	Aborted  bool   `json:"aborted"`
	Blocking bool   `json:"blocking"`
	Findings int    `json:"findings"`
}

// Sink records findings for the transaction currently being audited and decides its outcome.
// It is not safe for concurrent use.
type Sink struct {
	logger  *zap.Logger
	printer *Printer

	findings []Finding
	results  []TxResult
	current  *TxResult
}

// NewSink creates a sink. The printer is optional; pass nil to only record findings.
func NewSink(logger *zap.Logger, printer *Printer) *Sink {
	return &Sink{
		logger:  logger,
		printer: printer,
	}
}

func (s *Sink) Header(total int, source string) {
	if s.printer != nil {
		s.printer.Header(total, source)
	}
}

// Begin starts a transaction. Any transaction still open is ended first.
func (s *Sink) Begin(index int, chain, topic string) {
	if s.current != nil {
		s.End()
	}
	s.current = &TxResult{Index: index, Chain: chain, Topic: topic, Clean: true}
	if s.printer != nil {
		s.printer.Transaction(index, chain, topic)
	}
}

// BeginRun opens the run-level section used for findings that outlive a single transaction.
func (s *Sink) BeginRun(title string) {
	if s.current != nil {
		s.End()
	}
	if s.printer != nil {
		s.printer.Section(title)
	}
}

// Report records a non-fatal finding.
func (s *Sink) Report(severity Severity, class Class, format string, args ...interface{}) {
	s.record(severity, class, fmt.Sprintf(format, args...))
}

// Fail records the abort of the current transaction.
func (s *Sink) Fail(abort *Abort) {
	s.record(SeverityError, abort.Class, abort.Message)
	if s.current != nil {
		s.current.Aborted = true
	}
}

func (s *Sink) record(severity Severity, class Class, message string) {
	f := Finding{Index: RunLevel, Severity: severity, Class: class, Message: message}
	if s.current != nil {
		f.Index = s.current.Index
		f.Chain = s.current.Chain
		s.current.Clean = false
		s.current.Blocking = s.current.Blocking || f.Blocking()
		s.current.Findings++
	}
	s.findings = append(s.findings, f)
	findingsTotal.WithLabelValues(severity.String(), class.String()).Inc()

	s.logger.Debug("finding",
		zap.Int("index", f.Index),
		zap.String("chain", f.Chain),
		zap.Stringer("severity", severity),
		zap.Stringer("class", class),
		zap.String("message", message))

	if s.printer != nil {
		s.printer.Finding(f)
	}
}

// End closes the current transaction and returns its result.
func (s *Sink) End() TxResult {
	if s.current == nil {
		return TxResult{Index: RunLevel}
	}
	res := *s.current
	s.current = nil
	s.results = append(s.results, res)

	switch {
	case res.Aborted:
		transactionsTotal.WithLabelValues(res.Chain, resultAborted).Inc()
		if s.printer != nil {
			s.printer.Fail()
		}
	case res.Clean:
		transactionsTotal.WithLabelValues(res.Chain, resultPass).Inc()
		if s.printer != nil {
			s.printer.Pass()
		}
	default:
		transactionsTotal.WithLabelValues(res.Chain, resultNotClean).Inc()
		if s.printer != nil {
			s.printer.NotClean(res.Blocking)
		}
	}
	return res
}

// Findings returns every finding recorded so far.
func (s *Sink) Findings() []Finding {
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

func (s *Sink) Results() []TxResult {
	out := make([]TxResult, len(s.results))
	copy(out, s.results)
	return out
}
