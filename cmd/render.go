package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/longkey1/codeqa/internal/codeqa/retrieval"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))
)

// isTerminal reports whether f is an interactive terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useMarkdown resolves the markdown mode for output written to f
func useMarkdown(mode string, f *os.File) bool {
	switch mode {
	case config.MarkdownAlways:
		return true
	case config.MarkdownNever:
		return false
	default:
		return isTerminal(f)
	}
}

// renderMarkdown renders markdown for terminal display.
// Returns the original content if rendering fails.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		log.Debug().Err(err).Msg("markdown renderer unavailable")
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		log.Debug().Err(err).Msg("markdown rendering failed")
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// printContext writes the retrieval context one section per file. Sections are
// syntax highlighted when color is set; context without file headers is printed as is.
func printContext(w io.Writer, context, style string, color bool) {
	sections := retrieval.ParseSections(context)
	if len(sections) == 0 {
		fmt.Fprintln(w, context)
		return
	}

	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if !color {
			fmt.Fprintf(w, "==> %s <==\n%s\n", section.Header(), section.Content)
			continue
		}

		fmt.Fprintln(w, headerStyle.Render(section.Header())+" "+infoStyle.Render("("+retrieval.Language(section)+")"))
		highlighted, err := retrieval.Highlight(section, style)
		if err != nil {
			log.Debug().Err(err).Str("file", section.File).Msg("highlighting failed")
		}
		fmt.Fprintln(w, strings.TrimRight(highlighted, "\n"))
	}
}

// formatSeconds renders an execution time the way the status line shows it
func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.2fs", seconds)
}
