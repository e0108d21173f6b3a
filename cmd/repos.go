package cmd

import (
	"fmt"
	"os"

	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/spf13/cobra"
)

// reposCmd represents the repos command
var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List the repositories available on the server",
	Long: `List all repositories the backend has indexed.
Fetches the list directly from the server.

Any of these names can be passed to 'codeqa ask --repo <name>'.

Example:
  codeqa repos`,
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

		repos, err := c.Repositories(cmd.Context())
		if err != nil {
			return err
		}

		printRepositories(repos, cfg.GetRepository())
		return nil
	},
}

// printRepositories lists repository names, marking the selected one
func printRepositories(repos []string, selected *string) {
	if len(repos) == 0 {
		fmt.Println("No repositories found.")
		return
	}

	fmt.Printf("Available repositories (%d found):\n\n", len(repos))
	for _, repo := range repos {
		marker := " "
		if selected != nil && *selected == repo {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, repo)
	}
	if selected == nil {
		fmt.Fprintln(os.Stderr, "\nQuestions currently search all repositories.")
	}
}

func init() {
	rootCmd.AddCommand(reposCmd)
}
