package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// exitError ends the process with code without printing anything more; the
// command has already reported the failure.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codeqa",
	Short: "Ask questions about your code repositories",
	Long: `codeqa is a command-line client for a code question answering service.
It sends your question to the backend, streams the answer as it is generated,
and keeps the retrieved source snippets the answer was based on.

You can configure the tool using a TOML configuration file.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/codeqa/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default from config, warn)")
}

// userConfigDir returns $HOME/.config/codeqa
func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codeqa"), nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("CODEQA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	userDir, err := userConfigDir()
	cobra.CheckErr(err)

	// Later directories in the array take precedence over earlier ones
	defaultPromptDirs := []string{
		"/usr/share/codeqa/prompts",
		"/usr/local/share/codeqa/prompts",
		filepath.Join(userDir, "prompts"),
	}
	config.SetDefaults(viper.GetViper(), defaultPromptDirs)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
		return
	}

	// Load system-wide config first (lower priority)
	for _, path := range []string{"/etc/codeqa", "/usr/local/etc/codeqa"} {
		viper.AddConfigPath(path)
	}
	viper.SetConfigType("toml")
	viper.SetConfigName("config")

	systemConfigLoaded := viper.ReadInConfig() == nil

	// Load user config (higher priority) - merge with system config
	userConfig := filepath.Join(userDir, "config.toml")
	if _, err := os.Stat(userConfig); err != nil {
		return
	}
	viper.SetConfigFile(userConfig)
	if systemConfigLoaded {
		if err := viper.MergeInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
		}
	} else if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
	}
}

// setupLogging configures the global zerolog logger on stderr
func setupLogging() {
	level := logLevel
	if level == "" {
		level = viper.GetString("log_level")
	}
	if verbose {
		level = "debug"
	}

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(parsed)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		NoColor:    !isTerminal(os.Stderr),
	}).With().Timestamp().Logger()

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Str("server_url", viper.GetString("server_url")).
		Strs("prompt_dirs", viper.GetStringSlice("prompt_dirs")).
		Msg("configuration loaded")
}
