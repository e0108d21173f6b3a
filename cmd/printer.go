package cmd

import (
	"fmt"
	"io"
	"strings"
)

// answerPrinter writes a streaming answer to a terminal that cannot take back
// what it printed. The visible answer can shrink while a delimiter is still
// arriving ("... --- CONT" becomes "..."), so only a prefix that can no longer
// change is written.
type answerPrinter struct {
	w         io.Writer
	delimiter string
	live      bool
	render    func(string) string

	printed  string
	diverged bool
}

// newAnswerPrinter creates a printer. With live unset nothing is written until
// Finish, which then passes the whole answer through render (when not nil).
func newAnswerPrinter(w io.Writer, delimiter string, live bool, render func(string) string) *answerPrinter {
	return &answerPrinter{w: w, delimiter: delimiter, live: live, render: render}
}

// Update takes the full visible answer so far. settled reports that the answer
// has been split from its context and will not change again.
func (p *answerPrinter) Update(answer string, settled bool) {
	if !p.live || p.diverged {
		return
	}

	stable := answer
	if !settled {
		stable = strings.TrimRight(holdBack(answer, p.delimiter), " \t\r\n")
	}

	if !strings.HasPrefix(stable, p.printed) {
		p.diverged = true
		return
	}
	if len(stable) > len(p.printed) {
		fmt.Fprint(p.w, stable[len(p.printed):])
		p.printed = stable
	}
}

// Finish writes whatever of the final answer is not on screen yet.
func (p *answerPrinter) Finish(answer string) {
	switch {
	case !p.live:
		if p.render != nil {
			answer = p.render(answer)
		}
		fmt.Fprint(p.w, answer)
	case p.diverged || !strings.HasPrefix(answer, p.printed):
		if p.printed != "" {
			fmt.Fprintln(p.w)
		}
		fmt.Fprint(p.w, answer)
	default:
		fmt.Fprint(p.w, answer[len(p.printed):])
	}
	if !strings.HasSuffix(answer, "\n") {
		fmt.Fprintln(p.w)
	}
	p.printed = ""
	p.diverged = false
}

// Abort ends a partially printed line so what follows starts on its own line.
func (p *answerPrinter) Abort() {
	if p.printed != "" {
		fmt.Fprintln(p.w)
	}
	p.printed = ""
	p.diverged = false
}

// holdBack drops the longest suffix of s that could be the start of delimiter.
func holdBack(s, delimiter string) string {
	for k := min(len(delimiter)-1, len(s)); k > 0; k-- {
		if strings.HasSuffix(s, delimiter[:k]) {
			return s[:len(s)-k]
		}
	}
	return s
}
