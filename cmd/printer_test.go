package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/stretchr/testify/assert"
)

// feed drives a printer from an accumulator the way the ask command does.
func feed(p *answerPrinter, fragments ...string) string {
	acc := codeqa.NewAccumulator("")
	var res codeqa.Result
	for _, f := range fragments {
		res = acc.Apply(f)
		p.Update(res.Answer, res.HasContext)
	}
	return res.Answer
}

func TestAnswerPrinter_NeverPrintsDelimiterPrefix(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, codeqa.ContextDelimiter, true, nil)
	acc := codeqa.NewAccumulator("")

	for _, f := range []string{"It ", "returns ", "42.\n\n--- CONT"} {
		res := acc.Apply(f)
		p.Update(res.Answer, res.HasContext)
	}
	assert.Equal(t, "It returns 42.", buf.String())

	res := acc.Apply("EXT_DELIMITER ---\n\nctx")
	p.Update(res.Answer, res.HasContext)
	p.Finish(res.Answer)
	assert.Equal(t, "It returns 42.\n", buf.String())
}

func TestAnswerPrinter_ChunkedStream(t *testing.T) {
	full := "First line.\nSecond - with a dash -\n\n" + codeqa.ContextDelimiter + "\n\n**File: a.go:1**"

	for cut := 1; cut < len(full); cut += 3 {
		var buf bytes.Buffer
		p := newAnswerPrinter(&buf, codeqa.ContextDelimiter, true, nil)

		var fragments []string
		for i := 0; i < len(full); i += cut {
			fragments = append(fragments, full[i:min(i+cut, len(full))])
		}
		answer := feed(p, fragments...)
		p.Finish(answer)

		assert.Equal(t, "First line.\nSecond - with a dash -\n", buf.String(), "cut %d", cut)
	}
}

func TestAnswerPrinter_HeldBackDashIsFlushedOnFinish(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, codeqa.ContextDelimiter, true, nil)

	answer := feed(p, "Use x -")
	assert.Equal(t, "Use x", buf.String())

	p.Finish(answer)
	assert.Equal(t, "Use x -\n", buf.String())
}

func TestAnswerPrinter_NotLive(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, codeqa.ContextDelimiter, false, strings.ToUpper)

	answer := feed(p, "hello ", "world")
	assert.Empty(t, buf.String())

	p.Finish(answer)
	assert.Equal(t, "HELLO WORLD\n", buf.String())
}

func TestAnswerPrinter_Abort(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, codeqa.ContextDelimiter, true, nil)

	feed(p, "partial answer")
	p.Abort()
	assert.Equal(t, "partial answer\n", buf.String())

	buf.Reset()
	p.Abort()
	assert.Empty(t, buf.String())
}

func TestAnswerPrinter_Diverged(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, codeqa.ContextDelimiter, true, nil)

	p.Update("abc", false)
	p.Update("xyz", false)
	assert.Equal(t, "abc", buf.String())

	p.Finish("xyz")
	assert.Equal(t, "abc\nxyz\n", buf.String())
}

func TestHoldBack(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "answer", want: "answer"},
		{in: "answer -", want: "answer "},
		{in: "answer --- CONTEXT_DELIM", want: "answer "},
		{in: "answer --- other", want: "answer --- other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, holdBack(tt.in, codeqa.ContextDelimiter), tt.in)
	}
}
