package report

import (
	"fmt"
)

// Severity orders findings by how much they block a batch.
type Severity int

const (
	// SeverityWarn is a manual-review notice.
	SeverityWarn Severity = iota
	// SeverityDetail is a recorded defect that does not stop the transaction.
	SeverityDetail
	// SeverityError stops validation of the transaction.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityDetail:
		return "detail"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Class is the kind of defect a finding describes.
type Class int

const (
	// ClassStructural covers malformed or misrouted transactions.
	ClassStructural Class = iota
	// ClassConsistency covers disagreement with an earlier transaction of the batch.
	ClassConsistency
	// ClassAdvisory covers defects worth fixing that do not invalidate the transaction.
	ClassAdvisory
	// ClassManualReview marks what the auditor cannot check on its own.
	ClassManualReview
	// ClassUnknown marks a check that could not run because the chain query was unavailable.
	ClassUnknown
	// ClassDrift covers expected divergence from chain state, such as reserved nonces.
	ClassDrift
)

func (c Class) String() string {
	switch c {
	case ClassStructural:
		return "structural"
	case ClassConsistency:
		return "consistency"
	case ClassAdvisory:
		return "advisory"
	case ClassManualReview:
		return "manual-review"
	case ClassUnknown:
		return "unknown"
	case ClassDrift:
		return "drift"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// RunLevel is the index of findings that belong to the run rather than one transaction.
const RunLevel = -1

type Finding struct {
	Index    int      `json:"index"`
	Chain    string   `json:"chain,omitempty"`
	Severity Severity `json:"severity"`
	Class    Class    `json:"class"`
	Message  string   `json:"message"`
}

// Blocking reports whether the finding alone makes the run NO-GO. Degraded confidence and drift never do.
func (f Finding) Blocking() bool {
	if f.Severity < SeverityDetail {
		return false
	}
	return f.Class != ClassUnknown && f.Class != ClassDrift
}

// Abort is the fatal outcome of a check. Returning one stops the current transaction only.
type Abort struct {
	Class   Class
	Message string
}

func (a *Abort) Error() string {
	return fmt.Sprintf("%s: %s", a.Class, a.Message)
}

func Structural(format string, args ...interface{}) *Abort {
	return &Abort{Class: ClassStructural, Message: fmt.Sprintf(format, args...)}
}

func Consistency(format string, args ...interface{}) *Abort {
	return &Abort{Class: ClassConsistency, Message: fmt.Sprintf(format, args...)}
}
