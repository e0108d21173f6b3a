package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/longkey1/codeqa/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionCheck bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show detailed version information including:
- Version number, Git commit SHA, build time and Go version
- The user agent sent to the backend and the configured server

With --check the backend is asked for its repositories to confirm it is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, version.Short())
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			// A broken config still gets the build information.
			fmt.Fprintln(out, version.Info())
			fmt.Fprintf(out, "client:\n  config: %v\n", err)
			return nil
		}
		printVersion(out, cfg)

		if !versionCheck {
			return nil
		}
		c, err := newClient(cfg)
		if err != nil {
			return err
		}
		return checkBackend(cmd.Context(), out, c)
	},
}

// printVersion writes the build information followed by the client settings
func printVersion(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, version.Info())
	fmt.Fprintln(w, "client:")
	fmt.Fprintf(w, "  agent:    codeqa/%s\n", version.Short())
	fmt.Fprintf(w, "  server:   %s\n", cfg.ServerURL)
	fmt.Fprintf(w, "  template: %s\n", cfg.TemplateName)
	fmt.Fprintf(w, "  context:  %t\n", cfg.IncludeContext)
}

// repositoryLister is the part of the backend client the reachability check needs
type repositoryLister interface {
	Repositories(ctx context.Context) ([]string, error)
}

// checkBackend reports whether the backend answers a repository listing
func checkBackend(ctx context.Context, w io.Writer, c repositoryLister) error {
	if ctx == nil {
		ctx = context.Background()
	}
	repos, err := c.Repositories(ctx)
	if err != nil {
		fmt.Fprintf(w, "  backend:  unreachable (%v)\n", err)
		return &exitError{code: 1}
	}
	fmt.Fprintf(w, "  backend:  ok, %d repositories indexed\n", len(repos))
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "Show only version number")
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check that the configured backend is reachable")
}
