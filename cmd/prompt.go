package cmd

import (
	"fmt"
	"sort"

	"github.com/longkey1/codeqa/internal/codeqa/config"
	promptpkg "github.com/longkey1/codeqa/internal/codeqa/prompt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var withDir bool

// promptCmd represents the prompt command
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "List available question templates",
	Long: `List all available question templates from the configured prompt directories.
This command recursively scans all prompt directories specified in the configuration and displays
the names of available .toml prompt files, including those in subdirectories.

The prompt files should be in TOML format with the following structure:
question = "Question with optional {{input}} placeholder"
repository = "optional-repository"

Prompt names are displayed as relative paths from the prompt directory root.
For example, a file at ${prompt_dir}/foo/bar.toml will be displayed as "foo/bar".
When the same name exists in several directories, the later directory wins.

If you want to see which directory each prompt comes from, use the --with-dir option.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log.Debug().Strs("prompt_dirs", cfg.PromptDirs).Msg("scanning prompt directories")

		entries, err := promptpkg.List(cfg.PromptDirs)
		if err != nil {
			return err
		}

		var active []promptpkg.Entry
		for _, e := range entries {
			if e.Shadowed {
				log.Debug().Str("prompt", e.Name).Str("dir", e.Dir).Msg("prompt overridden by a later directory")
				continue
			}
			active = append(active, e)
		}

		sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })

		if len(active) == 0 {
			fmt.Println("No prompt templates found.")
			fmt.Println("Create .toml files in the following directories:")
			for _, promptDir := range cfg.PromptDirs {
				fmt.Printf("  - %s\n", promptDir)
			}
			return nil
		}

		fmt.Printf("Available prompt templates (%d found):\n\n", len(active))
		for _, e := range active {
			if withDir {
				fmt.Printf("  %s (from %s)\n", e.Name, e.Dir)
			} else {
				fmt.Printf("  %s\n", e.Name)
			}
		}

		fmt.Printf("\nUse a prompt template with: codeqa ask --prompt <name> [question]\n")
		fmt.Printf("Example: codeqa ask --prompt foo/bar [question]\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().BoolVar(&withDir, "with-dir", false, "Show the directory each prompt was found in")
}
