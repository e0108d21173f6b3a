// Package prompt loads local question templates.
package prompt

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Extension is the file extension of question templates.
const Extension = ".toml"

// Prompt represents the structure of a TOML question template
type Prompt struct {
	Question    string  `toml:"question"`
	Description string  `toml:"description,omitempty"`
	Repository  *string `toml:"repository,omitempty"`
}

// LoadPrompt loads a question template file
func LoadPrompt(filePath string) (*Prompt, error) {
	var prompt Prompt
	if _, err := toml.DecodeFile(filePath, &prompt); err != nil {
		return nil, fmt.Errorf("error decoding prompt file: %w", err)
	}
	if strings.TrimSpace(prompt.Question) == "" {
		return nil, fmt.Errorf("prompt file %s has no question", filePath)
	}
	return &prompt, nil
}

// Entry is a template found while listing prompt directories.
type Entry struct {
	// Name is the path relative to its directory without the extension, e.g. "review/security".
	Name string
	Dir  string
	Path string
	// Shadowed is true when a later directory defines the same name.
	Shadowed bool
}

// List returns every template in dirs and their subdirectories, ordered by
// directory then name. Missing directories are skipped.
func List(dirs []string) ([]Entry, error) {
	var entries []Entry
	latest := make(map[string]int)

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		var names []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), Extension) {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, Extension)))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error reading prompt directory %s: %w", dir, err)
		}
		sort.Strings(names)

		for _, name := range names {
			if i, ok := latest[name]; ok {
				entries[i].Shadowed = true
			}
			latest[name] = len(entries)
			entries = append(entries, Entry{
				Name: name,
				Dir:  dir,
				Path: filepath.Join(dir, filepath.FromSlash(name)+Extension),
			})
		}
	}
	return entries, nil
}
