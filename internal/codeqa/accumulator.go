package codeqa

import "strings"

// Result is the visible outcome of folding one content fragment into an Accumulator.
type Result struct {
	// Answer is the text shown as the assistant message.
	Answer string
	// Context is the retrieval context, valid when HasContext is true.
	Context string
	// HasContext is true once the delimiter has been seen in this turn.
	HasContext bool
	// JustSplit is true only for the fragment that completed the delimiter.
	JustSplit bool
}

// Accumulator folds the content fragments of one answer into a running buffer and
// splits it into answer and context at the first occurrence of the delimiter.
//
// Detection runs on the cumulative buffer because the delimiter may arrive split
// across fragments. Once found, the answer is frozen for the rest of the turn and
// only the context keeps growing. An Accumulator must not be reused across turns.
type Accumulator struct {
	delimiter string

	raw            strings.Builder
	delimiterFound bool
	answer         string
	contextStart   int // offset in raw just past the delimiter
	scanFrom       int // earliest offset where an unseen delimiter could start
}

// NewAccumulator creates an Accumulator for one turn. An empty delimiter selects ContextDelimiter.
func NewAccumulator(delimiter string) *Accumulator {
	if delimiter == "" {
		delimiter = ContextDelimiter
	}
	return &Accumulator{delimiter: delimiter}
}

// Apply appends fragment to the buffer and returns the current answer and context.
func (a *Accumulator) Apply(fragment string) Result {
	a.raw.WriteString(fragment)
	raw := a.raw.String()

	if a.delimiterFound {
		return Result{
			Answer:     a.answer,
			Context:    strings.TrimSpace(raw[a.contextStart:]),
			HasContext: true,
		}
	}

	idx := strings.Index(raw[a.scanFrom:], a.delimiter)
	if idx < 0 {
		// The tail may hold the first bytes of a delimiter still in flight.
		a.scanFrom = max(0, len(raw)-len(a.delimiter)+1)
		return Result{Answer: strings.TrimSpace(raw)}
	}
	idx += a.scanFrom

	a.delimiterFound = true
	a.answer = strings.TrimSpace(raw[:idx])
	a.contextStart = idx + len(a.delimiter)
	return Result{
		Answer:     a.answer,
		Context:    strings.TrimSpace(raw[a.contextStart:]),
		HasContext: true,
		JustSplit:  true,
	}
}

// DelimiterFound reports whether the answer has been split from its context.
func (a *Accumulator) DelimiterFound() bool {
	return a.delimiterFound
}

// Raw returns everything received so far, delimiter included.
func (a *Accumulator) Raw() string {
	return a.raw.String()
}

// Delimiter returns the literal this Accumulator splits on.
func (a *Accumulator) Delimiter() string {
	return a.delimiter
}
