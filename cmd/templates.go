package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/spf13/cobra"
)

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List the server's answer templates",
	Long: `List the answer templates the backend can use to phrase its answers,
or print the content of one template.

The template used for questions is set with template_name in the config file.

Example:
  codeqa templates                    # List all templates
  codeqa templates code_qa_template   # Print one template`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		c, err := newClient(cfg)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			content, err := c.Template(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		}

		templates, err := c.Templates(cmd.Context())
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Println("No templates found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPATH\tIN USE")
		fmt.Fprintln(w, "----\t----\t------")
		for _, t := range templates {
			inUse := ""
			if t.Name == cfg.TemplateName {
				inUse = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Path, inUse)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
