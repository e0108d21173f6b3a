package cmd

import (
	"fmt"
	"strings"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configFields = []string{
	"configfile", "server_url", "repository", "template_name", "include_context",
	"request_timeout", "stream_header_timeout", "promptdirs", "markdown", "highlight_style", "log_level",
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + strings.Join(configFields, ", ") + `

Examples:
  codeqa config                 # Show all configuration
  codeqa config server_url      # Show only the server URL
  codeqa config repository      # Show only the default repository
  codeqa config promptdirs      # Show only prompt directories`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if len(args) > 0 {
			value, ok := configField(cfg, args[0])
			if !ok {
				return fmt.Errorf("unknown field: %s\nAvailable fields: %s", args[0], strings.Join(configFields, ", "))
			}
			fmt.Println(value)
			return nil
		}

		fmt.Printf("ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Printf("ServerURL: %s\n", cfg.ServerURL)
		fmt.Printf("Repository: %s\n", codeqa.FormatRepository(cfg.GetRepository()))
		fmt.Printf("TemplateName: %s\n", cfg.TemplateName)
		fmt.Printf("IncludeContext: %v\n", cfg.IncludeContext)
		fmt.Printf("RequestTimeout: %s\n", cfg.RequestTimeout)
		fmt.Printf("StreamHeaderTimeout: %s\n", cfg.StreamHeaderTimeout)
		// PromptDirs are already absolute paths
		fmt.Printf("PromptDirectories: %s\n", strings.Join(cfg.PromptDirs, ","))
		fmt.Printf("Markdown: %s\n", cfg.Markdown)
		fmt.Printf("HighlightStyle: %s\n", cfg.HighlightStyle)
		fmt.Printf("LogLevel: %s\n", cfg.LogLevel)
		return nil
	},
}

// configField returns the display value of a single field
func configField(cfg *config.Config, field string) (string, bool) {
	switch strings.ToLower(field) {
	case "configfile":
		return viper.ConfigFileUsed(), true
	case "server_url", "serverurl":
		return cfg.ServerURL, true
	case "repository", "repo":
		return codeqa.FormatRepository(cfg.GetRepository()), true
	case "template_name", "templatename":
		return cfg.TemplateName, true
	case "include_context", "includecontext":
		return fmt.Sprint(cfg.IncludeContext), true
	case "request_timeout", "requesttimeout":
		return cfg.RequestTimeout, true
	case "stream_header_timeout", "streamheadertimeout":
		return cfg.StreamHeaderTimeout, true
	case "promptdirs", "prompt_dirs":
		return strings.Join(cfg.PromptDirs, ","), true
	case "markdown":
		return cfg.Markdown, true
	case "highlight_style", "highlightstyle":
		return cfg.HighlightStyle, true
	case "log_level", "loglevel":
		return cfg.LogLevel, true
	default:
		return "", false
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
