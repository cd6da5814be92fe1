package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

type Verdict string

const (
	VerdictGo   Verdict = "GO"
	VerdictNoGo Verdict = "NO-GO"
)

// Summary is the outcome of a whole run.
type Summary struct {
	RunID       uuid.UUID  `json:"runId"`
	Source      string     `json:"source"`
	Total       int        `json:"total"`
	Clean       int        `json:"clean"`
	NotClean    int        `json:"notClean"`
	Aborted     int        `json:"aborted"`
	RunFindings int        `json:"runFindings"`
	Unknown     int        `json:"unknown"`
	Verdict     Verdict    `json:"verdict"`
	Results     []TxResult `json:"results"`
	Findings    []Finding  `json:"findings"`
}

// Summarize closes any open transaction and computes the run verdict.
// A run is NO-GO when a transaction aborted or any blocking finding exists.
func (s *Sink) Summarize(runID uuid.UUID, source string) *Summary {
	if s.current != nil {
		s.End()
	}

	sum := &Summary{
		RunID:    runID,
		Source:   source,
		Total:    len(s.results),
		Verdict:  VerdictGo,
		Results:  s.Results(),
		Findings: s.Findings(),
	}
	for _, res := range s.results {
		switch {
		case res.Aborted:
			sum.Aborted++
		case res.Clean:
			sum.Clean++
		default:
			sum.NotClean++
		}
	}
	if sum.Aborted > 0 {
		sum.Verdict = VerdictNoGo
	}
	for _, f := range s.findings {
		if f.Index == RunLevel {
			sum.RunFindings++
		}
		if f.Class == ClassUnknown {
			sum.Unknown++
		}
		if f.Blocking() {
			sum.Verdict = VerdictNoGo
		}
	}

	if s.printer != nil {
		s.printer.Summary(sum)
	}
	return sum
}

func (s *Summary) Go() bool {
	return s.Verdict == VerdictGo
}

// WriteJSON writes the summary, including every finding, to path.
func (s *Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
