package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults(viper.GetViper(), []string{"/usr/share/codeqa/prompts"})
}

func TestLoadConfig_Defaults(t *testing.T) {
	setup(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Nil(t, cfg.GetRepository())
	assert.Equal(t, "code_qa_template", cfg.TemplateName)
	assert.True(t, cfg.IncludeContext)
	assert.Equal(t, MarkdownAuto, cfg.Markdown)
	assert.Equal(t, []string{"/usr/share/codeqa/prompts"}, cfg.PromptDirs)

	cc, err := cfg.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cc.RequestTimeout)
	assert.Zero(t, cc.StreamHeaderTimeout)
	assert.Contains(t, cc.UserAgent, "codeqa/")
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url = "${CODEQA_TEST_SERVER}"
repository = " backend "
include_context = false
stream_header_timeout = "2m"
prompt_dirs = ["prompts", "/abs/prompts"]
markdown = "never"
`), 0o644))
	t.Setenv("CODEQA_TEST_SERVER", "http://qa.internal:9000")

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://qa.internal:9000", cfg.ServerURL)
	require.NotNil(t, cfg.GetRepository())
	assert.Equal(t, "backend", *cfg.GetRepository())
	assert.False(t, cfg.IncludeContext)
	assert.Equal(t, []string{filepath.Join(dir, "prompts"), "/abs/prompts"}, cfg.PromptDirs)

	d, err := cfg.GetStreamHeaderTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "bad timeout", key: "request_timeout", value: "soon", wantErr: "invalid request_timeout"},
		{name: "negative header timeout", key: "stream_header_timeout", value: "-1s", wantErr: "must not be negative"},
		{name: "bad markdown", key: "markdown", value: "sometimes", wantErr: "invalid markdown mode"},
		{name: "unset server", key: "server_url", value: "$CODEQA_TEST_UNSET_VAR", wantErr: "server URL is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			viper.Set(tt.key, tt.value)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("CODEQA_TEST_VAR", "value")

	tests := []struct {
		input string
		want  string
	}{
		{input: "plain", want: "plain"},
		{input: "$CODEQA_TEST_VAR", want: "value"},
		{input: "${CODEQA_TEST_VAR}", want: "value"},
		{input: "$CODEQA_TEST_NOT_SET", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVar(tt.input))
		})
	}
}

func TestResolvePath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	abs, err := ResolvePath("/etc/codeqa/prompts")
	require.NoError(t, err)
	assert.Equal(t, "/etc/codeqa/prompts", abs)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := ResolvePath("prompts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "prompts"), rel)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	tilde, err := ResolvePath("~/prompts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "prompts"), tilde)
}
