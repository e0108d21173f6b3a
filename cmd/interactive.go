package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/longkey1/codeqa/internal/codeqa/client"
	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/longkey1/codeqa/internal/codeqa/conversation"
	"github.com/longkey1/codeqa/internal/codeqa/session"
	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// interactiveCmd represents the interactive command
var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Start an interactive question-answer session",
	Long: `Start an interactive session that keeps the conversation on screen.

Type a question and press Enter to ask it. Answers stream in as they are generated.
Press Ctrl+C while an answer is streaming to cancel it.
Type '/help' for commands, '/exit' or 'Ctrl+D' to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		c, err := newClient(cfg)
		if err != nil {
			return err
		}

		repository := cfg.GetRepository()
		if cmd.Flags().Changed("repo") {
			repository = parseRepository(repoFlag)
		}

		repl := &interactiveSession{
			cfg:        cfg,
			client:     c,
			repository: repository,
			controller: session.NewController(conversation.NewStore(), c,
				session.WithTemplateName(cfg.TemplateName),
				session.WithIncludeContext(cfg.IncludeContext),
				session.WithLogger(log.Logger),
			),
		}
		return repl.run(cmd.Context())
	},
}

// interactiveSession is the state of one REPL
type interactiveSession struct {
	cfg        *config.Config
	client     *client.Client
	controller *session.Controller
	repository *string

	line        *liner.State
	historyFile string
}

func (s *interactiveSession) run(ctx context.Context) error {
	s.line = liner.NewLiner()
	s.line.SetCtrlCAborts(true)
	defer s.closeLine()
	s.loadHistory()

	// Ctrl+C outside the prompt cancels the answer being streamed
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if s.controller.Phase() != session.PhaseIdle {
				s.controller.Cancel()
			}
		}
	}()

	s.printHeader()

	for {
		input, err := s.line.Prompt("You> ")
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Msg("prompt ended")
			}
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if s.handleSpecialCommand(ctx, input) {
				continue
			}
			return nil
		}

		s.ask(ctx, input)
	}
}

// ask runs one turn and prints the answer as it streams
func (s *interactiveSession) ask(ctx context.Context, question string) {
	markdown := useMarkdown(s.cfg.Markdown, os.Stdout)
	printer := newAnswerPrinter(os.Stdout, codeqa.ContextDelimiter, !markdown, renderMarkdown)

	labelled := false
	label := func() {
		if labelled {
			return
		}
		labelled = true
		fmt.Print(promptStyle.Render("Assistant>") + " ")
		if markdown {
			fmt.Println()
		}
	}

	fmt.Println()
	spin := startSpinner(isTerminal(os.Stderr))
	unsubscribe := s.controller.Store().Subscribe(func(st conversation.State) {
		if markdown || st.Status != conversation.StatusStreaming {
			return
		}
		text, ok := st.LastAssistantText()
		if !ok || text == "" {
			return
		}
		spin.Stop()
		label()
		printer.Update(text, st.LastContext != nil)
	})

	err := s.controller.Submit(ctx, question, s.repository)
	unsubscribe()
	spin.Stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		return
	}

	st := s.controller.Store().Snapshot()
	outcome := s.controller.LastOutcome()
	text, _ := st.LastAssistantText()

	if outcome.Err != nil {
		printer.Abort()
		fmt.Fprintln(os.Stderr, errorStyle.Render(text))
		fmt.Println()
		return
	}

	label()
	printer.Finish(text)

	var status []string
	if st.ExecutionTime != nil {
		status = append(status, "Execution time: "+formatSeconds(*st.ExecutionTime))
	}
	if st.LastContext != nil {
		status = append(status, "context available (/context)")
	}
	if !outcome.EndReceived {
		fmt.Fprintln(os.Stderr, warningStyle.Render("The answer stream ended early; the answer may be incomplete."))
	}
	if len(status) > 0 {
		fmt.Fprintln(os.Stderr, infoStyle.Render(strings.Join(status, " · ")))
	}
	fmt.Println()
}

func (s *interactiveSession) printHeader() {
	fmt.Fprintln(os.Stderr, headerStyle.Render("\n=== codeqa interactive ==="))
	fmt.Fprintf(os.Stderr, "Server: %s\n", s.client.BaseURL())
	fmt.Fprintf(os.Stderr, "Repository: %s\n", codeqa.FormatRepository(s.repository))
	fmt.Fprintln(os.Stderr, "Type '/help' for commands, '/exit' or 'Ctrl+D' to quit")
	fmt.Fprint(os.Stderr, "==========================\n\n")
}

// handleSpecialCommand processes special commands in interactive mode
// Returns true to continue the loop, false to exit
func (s *interactiveSession) handleSpecialCommand(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	command := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch command {
	case "/help", "/h":
		fmt.Fprintln(os.Stderr, "\nAvailable commands:")
		fmt.Fprintln(os.Stderr, "  /help, /h           - Show this help message")
		fmt.Fprintln(os.Stderr, "  /repo [name|none]   - Show or change the repository to ask about")
		fmt.Fprintln(os.Stderr, "  /repos              - List the repositories on the server")
		fmt.Fprintln(os.Stderr, "  /context            - Show the code context of the latest answer")
		fmt.Fprintln(os.Stderr, "  /save <file>        - Save the code context of the latest answer")
		fmt.Fprintln(os.Stderr, "  /info, /i           - Show session information")
		fmt.Fprintln(os.Stderr, "  /clear, /c          - Clear screen (Unix/Linux only)")
		fmt.Fprintln(os.Stderr, "  /exit, /quit        - Exit interactive mode")
		fmt.Fprintln(os.Stderr, "  Ctrl+C              - Cancel the answer being streamed")
		fmt.Fprintln(os.Stderr, "  Ctrl+D              - Exit interactive mode")
		fmt.Fprintln(os.Stderr, "")

	case "/repo", "/r":
		if arg != "" {
			s.repository = parseRepository(arg)
		}
		fmt.Fprintf(os.Stderr, "Repository: %s\n\n", codeqa.FormatRepository(s.repository))

	case "/repos":
		repos, err := s.client.Repositories(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			break
		}
		printRepositories(repos, s.repository)
		fmt.Fprintln(os.Stderr, "")

	case "/context":
		st := s.controller.Store().Snapshot()
		if st.LastContext == nil {
			fmt.Fprintln(os.Stderr, "No context for the latest answer.")
			fmt.Fprintln(os.Stderr, "")
			break
		}
		printContext(os.Stdout, *st.LastContext, s.cfg.HighlightStyle, isTerminal(os.Stdout))
		fmt.Println()

	case "/save":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "Usage: /save <file>")
			break
		}
		st := s.controller.Store().Snapshot()
		if st.LastContext == nil {
			fmt.Fprintln(os.Stderr, "No context for the latest answer.")
			break
		}
		if err := writeContextFile(arg, *st.LastContext); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(os.Stderr, "Context saved to: %s\n\n", arg)

	case "/info", "/i":
		st := s.controller.Store().Snapshot()
		fmt.Fprintln(os.Stderr, "\nSession Information:")
		fmt.Fprintf(os.Stderr, "  Server: %s\n", s.client.BaseURL())
		fmt.Fprintf(os.Stderr, "  Repository: %s\n", codeqa.FormatRepository(s.repository))
		fmt.Fprintf(os.Stderr, "  Template: %s\n", s.cfg.TemplateName)
		fmt.Fprintf(os.Stderr, "  Messages: %d\n", len(st.Messages))
		if st.ExecutionTime != nil {
			fmt.Fprintf(os.Stderr, "  Last execution time: %s\n", formatSeconds(*st.ExecutionTime))
		}
		fmt.Fprintln(os.Stderr, "")

	case "/clear", "/c":
		fmt.Print("\033[H\033[2J")

	case "/exit", "/quit", "/q":
		fmt.Fprintln(os.Stderr, "Goodbye!")
		return false

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s (type '/help' for available commands)\n", command)
	}
	return true
}

func (s *interactiveSession) loadHistory() {
	dir, err := userConfigDir()
	if err != nil {
		return
	}
	s.historyFile = filepath.Join(dir, "history")
	if f, err := os.Open(s.historyFile); err == nil {
		s.line.ReadHistory(f)
		f.Close()
	}
}

func (s *interactiveSession) closeLine() {
	if s.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.historyFile), 0o755); err == nil {
			if f, err := os.OpenFile(s.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				s.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	s.line.Close()
}

// spinner shows a waiting animation on stderr until the first answer text arrives
type spinner struct {
	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

func startSpinner(enabled bool) *spinner {
	s := &spinner{done: make(chan struct{}), stopped: make(chan struct{})}
	if !enabled {
		close(s.stopped)
		return s
	}

	go func() {
		defer close(s.stopped)
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Fprintf(os.Stderr, "%s Waiting for answer...", frames[i])
			select {
			case <-s.done:
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprint(os.Stderr, "\r\033[K")
			}
		}
	}()
	return s
}

// Stop ends the animation and waits until its line is cleared.
func (s *spinner) Stop() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}

func init() {
	rootCmd.AddCommand(interactiveCmd)

	interactiveCmd.Flags().StringVarP(&repoFlag, "repo", "r", "", "Repository to ask about ('none' for all repositories)")
}
