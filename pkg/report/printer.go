package report

import (
	"fmt"
	"io"
)

const (
	colorRed    = "\x1B[101m"
	colorYellow = "\x1B[43m"
	colorGreen  = "\x1B[42m"
	colorReset  = "\x1B[0m"
)

// Printer writes the operator-facing audit stream.
type Printer struct {
	w     io.Writer
	color bool
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

func (p *Printer) Header(total int, source string) {
	fmt.Fprintf(p.w, "total %d txs from file %s\n", total, source)
}

func (p *Printer) Transaction(index int, chain, topic string) {
	fmt.Fprintf(p.w, "(%d) %s tx: %s\n", index, chain, topic)
}

func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w, title)
}

func (p *Printer) Finding(f Finding) {
	if f.Blocking() {
		p.colored(colorRed, f.Message)
		return
	}
	p.colored(colorYellow, f.Message)
}

func (p *Printer) Pass() {
	p.colored(colorGreen, "Pass")
}

func (p *Printer) Fail() {
	p.colored(colorRed, "Fail")
}

// NotClean closes a transaction that completed with findings.
func (p *Printer) NotClean(blocking bool) {
	if blocking {
		p.colored(colorRed, "Not clean")
		return
	}
	p.colored(colorYellow, "Not clean")
}

func (p *Printer) Summary(s *Summary) {
	fmt.Fprintf(p.w, "run %s: %d txs, %d pass, %d not clean, %d aborted, %d run findings, %d unknown\n",
		s.RunID, s.Total, s.Clean, s.NotClean, s.Aborted, s.RunFindings, s.Unknown)
	if s.Verdict == VerdictGo {
		p.colored(colorGreen, string(s.Verdict))
	} else {
		p.colored(colorRed, string(s.Verdict))
	}
}

func (p *Printer) colored(color, text string) {
	if !p.color {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintf(p.w, "%s%s%s\n", color, text, colorReset)
}
