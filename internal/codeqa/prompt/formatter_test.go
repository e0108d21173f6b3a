package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+Extension)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFormatQuestion(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "explain", `
question = "Explain {{input}} in the {{layer}} layer."
repository = "backend"
`)
	writePrompt(t, dir, "plain", `question = "Review: {{input}}"`)

	tests := []struct {
		name     string
		prompt   string
		args     []string
		want     string
		wantRepo *string
		wantErr  string
	}{
		{name: "no prompt", prompt: "", want: "the handler"},
		{
			name:     "placeholders and repository",
			prompt:   "explain",
			args:     []string{"layer:storage"},
			want:     "Explain the handler in the storage layer.",
			wantRepo: strPtr("backend"),
		},
		{name: "extension accepted", prompt: "plain.toml", want: "Review: the handler"},
		{name: "quoted escaped arg", prompt: "explain", args: []string{`"layer:a\:b"`}, want: "Explain the handler in the a:b layer.", wantRepo: strPtr("backend")},
		{name: "missing", prompt: "nope", wantErr: "not found"},
		{name: "reserved key", prompt: "plain", args: []string{"input:x"}, wantErr: "reserved"},
		{name: "bad arg", prompt: "plain", args: []string{"novalue"}, wantErr: "key:value"},
		{name: "empty key", prompt: "plain", args: []string{":v"}, wantErr: "Key must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repo, err := FormatQuestion("the handler", tt.prompt, []string{dir}, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestFind_LaterDirectoryWins(t *testing.T) {
	system, user := t.TempDir(), t.TempDir()
	writePrompt(t, system, "review", `question = "system {{input}}"`)
	userPath := writePrompt(t, user, "review", `question = "user {{input}}"`)

	path, err := Find("review", []string{system, user})
	require.NoError(t, err)
	assert.Equal(t, userPath, path)

	got, _, err := FormatQuestion("x", "review", []string{system, user}, nil)
	require.NoError(t, err)
	assert.Equal(t, "user x", got)
}

func TestLoadPrompt_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPrompt(writePrompt(t, dir, "broken", `question = `))
	assert.Error(t, err)

	_, err = LoadPrompt(writePrompt(t, dir, "empty", `repository = "x"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no question")
}

func TestList(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writePrompt(t, a, "review", `question = "{{input}}"`)
	writePrompt(t, a, "explain", `question = "{{input}}"`)
	writePrompt(t, b, "review", `question = "{{input}}"`)
	require.NoError(t, os.WriteFile(filepath.Join(b, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(b, "team"), 0o755))
	writePrompt(t, filepath.Join(b, "team"), "onboarding", `question = "{{input}}"`)

	entries, err := List([]string{a, filepath.Join(a, "missing"), b})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "explain", entries[0].Name)
	assert.False(t, entries[0].Shadowed)
	assert.Equal(t, "review", entries[1].Name)
	assert.True(t, entries[1].Shadowed)
	assert.Equal(t, filepath.Join(b, "review.toml"), entries[2].Path)
	assert.False(t, entries[2].Shadowed)
	assert.Equal(t, "team/onboarding", entries[3].Name)
	assert.Equal(t, b, entries[3].Dir)
}

func strPtr(s string) *string {
	return &s
}
