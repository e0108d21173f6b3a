// Package retrieval splits the retrieval context attached to an answer into
// per-file sections and renders them for the terminal.
package retrieval

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/pkg/errors"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// headerPattern matches a section header such as "**File: src/foo.py:10**".
// The greedy path keeps colons inside file names; the line number is the final ":<digits>".
var headerPattern = regexp.MustCompile(`(?m)^\*\*File:\s*(.+):(\d+)\*\*[ \t]*$`)

var (
	openingFence = regexp.MustCompile("^```[\\w+.-]*[ \\t]*\\n")
	closingFence = regexp.MustCompile("\\n?```[ \\t]*$")
)

// Section is the retrieved code of one file hit.
type Section struct {
	File    string
	Line    int
	Content string
}

// Header returns the section's "path:line" label.
func (s Section) Header() string {
	return s.File + ":" + strconv.Itoa(s.Line)
}

// ParseSections splits context into sections at each header line. Text before
// the first header is dropped and code fences around each section are removed.
// Context without any header yields no sections.
func ParseSections(context string) []Section {
	context = strings.ReplaceAll(context, "\r\n", "\n")
	matches := headerPattern.FindAllStringSubmatchIndex(context, -1)

	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(context)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		line, err := strconv.Atoi(context[m[4]:m[5]])
		if err != nil {
			continue
		}
		sections = append(sections, Section{
			File:    strings.TrimSpace(context[m[2]:m[3]]),
			Line:    line,
			Content: stripFences(strings.TrimSpace(context[m[1]:end])),
		})
	}
	return sections
}

func stripFences(s string) string {
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return s
}

// Highlight renders the section's content with ANSI syntax highlighting. The
// lexer is picked from the file name, then from the content itself.
func Highlight(section Section, style string) (string, error) {
	lexer := lexers.Match(section.File)
	if lexer == nil {
		lexer = lexers.Analyse(section.Content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	if style == "" {
		style = DefaultStyle
	}
	chromaStyle := chromaStyles.Get(style)
	if chromaStyle == nil {
		chromaStyle = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, section.Content)
	if err != nil {
		return section.Content, errors.Wrapf(err, "tokenising %s", section.File)
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, chromaStyle, iterator); err != nil {
		return section.Content, errors.Wrapf(err, "formatting %s", section.File)
	}
	return buf.String(), nil
}

// Language returns the name of the lexer Highlight would use for section.
func Language(section Section) string {
	if lexer := lexers.Match(section.File); lexer != nil {
		return lexer.Config().Name
	}
	if lexer := lexers.Analyse(section.Content); lexer != nil {
		return lexer.Config().Name
	}
	return "plaintext"
}
