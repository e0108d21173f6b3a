package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/longkey1/codeqa/internal/codeqa/conversation"
	promptpkg "github.com/longkey1/codeqa/internal/codeqa/prompt"
	"github.com/spf13/cobra"
)

var (
	repoFlag     string
	prompt       string
	argFlags     []string
	useEditor    bool
	showContext  bool
	contextOut   string
	markdownMode string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your code",
	Long: `Ask a question and stream the answer as it is generated.
This command performs a single question-answer turn against the backend.

For a multi-turn conversation, use 'codeqa interactive' instead.

If no question is provided as an argument, it reads from stdin.
If --editor flag is set, it opens the default editor (from EDITOR environment variable) to compose the question.

The repository defaults to the configured one; with none configured, all indexed
repositories are searched. Use --repo none to search all of them explicitly.

The prompt file should be in TOML format with the following structure:
question = "Question with optional {{input}} placeholder"
repository = "optional-repository"  # Optional: repository to ask about`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("markdown") {
			cfg.Markdown = markdownMode
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		question, err := readQuestion(args)
		if err != nil {
			return err
		}

		formatted, promptRepo, err := promptpkg.FormatQuestion(question, prompt, cfg.PromptDirs, argFlags)
		if err != nil {
			return fmt.Errorf("formatting question with prompt: %w", err)
		}

		// Repository priority: flag > prompt template > config file
		repository := cfg.GetRepository()
		if cmd.Flags().Changed("repo") {
			repository = parseRepository(repoFlag)
		} else if promptRepo != nil {
			repository = promptRepo
		}

		ctrl, err := newController(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		markdown := useMarkdown(cfg.Markdown, os.Stdout)
		printer := newAnswerPrinter(os.Stdout, codeqa.ContextDelimiter, !markdown, renderMarkdown)
		unsubscribe := ctrl.Store().Subscribe(func(st conversation.State) {
			if st.Status != conversation.StatusStreaming {
				return
			}
			if text, ok := st.LastAssistantText(); ok {
				printer.Update(text, st.LastContext != nil)
			}
		})
		defer unsubscribe()

		if err := ctrl.Submit(ctx, formatted, repository); err != nil {
			if errors.Is(err, codeqa.ErrInvalidInput) {
				return fmt.Errorf("no question given: pass it as an argument, on stdin, or with --editor")
			}
			return err
		}

		st := ctrl.Store().Snapshot()
		outcome := ctrl.LastOutcome()
		text, _ := st.LastAssistantText()

		if outcome.Err != nil {
			printer.Abort()
			fmt.Fprintln(os.Stderr, errorStyle.Render(text))
			return &exitError{code: 1}
		}

		printer.Finish(text)
		if !outcome.EndReceived {
			fmt.Fprintln(os.Stderr, warningStyle.Render("The answer stream ended early; the answer may be incomplete."))
		}
		if st.ExecutionTime != nil {
			fmt.Fprintln(os.Stderr, infoStyle.Render("Execution time: "+formatSeconds(*st.ExecutionTime)))
		}

		if st.LastContext != nil {
			if showContext {
				fmt.Println()
				printContext(os.Stdout, *st.LastContext, cfg.HighlightStyle, isTerminal(os.Stdout))
			}
			if contextOut != "" {
				if err := writeContextFile(contextOut, *st.LastContext); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Context saved to: %s\n", contextOut)
			}
		} else if showContext || contextOut != "" {
			fmt.Fprintln(os.Stderr, infoStyle.Render("No context was returned for this answer."))
		}

		return nil
	},
}

// readQuestion gets the question from arguments, editor, or stdin
func readQuestion(args []string) (string, error) {
	if useEditor {
		question, err := getMessageFromEditor()
		if err != nil {
			return "", fmt.Errorf("getting question from editor: %w", err)
		}
		return question, nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading from stdin: %w", err)
	}
	return strings.TrimSpace(string(input)), nil
}

// parseRepository maps "" and "none" to all repositories
func parseRepository(name string) *string {
	if strings.EqualFold(strings.TrimSpace(name), "none") {
		return nil
	}
	return codeqa.RepositoryOrNil(name)
}

// writeContextFile saves the retrieval context as plain text
func writeContextFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("saving context: %w", err)
	}
	return nil
}

// getMessageFromEditor opens the default editor and returns the edited message
func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	tmpFile, err := os.CreateTemp("", "codeqa-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&repoFlag, "repo", "r", "", "Repository to ask about ('none' for all repositories)")
	askCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Name of the prompt template (without .toml extension)")
	askCmd.Flags().StringArrayVar(&argFlags, "arg", []string{}, "Key-value pairs for prompt template (format: key:value)")
	askCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose question")
	askCmd.Flags().BoolVarP(&showContext, "show-context", "c", false, "Print the retrieved code context after the answer")
	askCmd.Flags().StringVarP(&contextOut, "context-out", "o", "", "Save the retrieved code context to a file")
	askCmd.Flags().StringVar(&markdownMode, "markdown", config.MarkdownAuto, "Render the answer as markdown: auto, always or never")
}
