package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatQuestion applies the named template to question.
// Returns the formatted question and the repository the template pins (if any).
// An empty promptName returns question unchanged.
func FormatQuestion(question string, promptName string, promptDirs []string, args []string) (string, *string, error) {
	if promptName == "" {
		return question, nil, nil
	}

	promptPath, err := Find(promptName, promptDirs)
	if err != nil {
		return "", nil, err
	}

	promptTemplate, err := LoadPrompt(promptPath)
	if err != nil {
		return "", nil, fmt.Errorf("error loading prompt file: %w", err)
	}

	argMap, err := processArgs(args)
	if err != nil {
		return "", nil, fmt.Errorf("error processing arguments: %w", err)
	}

	replacements := make(map[string]string)
	replacements["input"] = question
	for key, value := range argMap {
		replacements[key] = value
	}

	formatted := promptTemplate.Question
	for key, value := range replacements {
		formatted = strings.ReplaceAll(formatted, fmt.Sprintf("{{%s}}", key), value)
	}

	var repository *string
	if promptTemplate.Repository != nil {
		if name := strings.TrimSpace(*promptTemplate.Repository); name != "" {
			repository = &name
		}
	}

	return formatted, repository, nil
}

// Find resolves a template name to its file. Later directories take precedence.
func Find(promptName string, promptDirs []string) (string, error) {
	promptFile := promptName
	if !strings.HasSuffix(promptFile, Extension) {
		promptFile = promptFile + Extension
	}

	var promptPath string
	for _, promptDir := range promptDirs {
		candidatePath := filepath.Join(promptDir, promptFile)
		if _, err := os.Stat(candidatePath); err == nil {
			promptPath = candidatePath
		}
	}

	if promptPath == "" {
		return "", fmt.Errorf("prompt file '%s' not found in any of the prompt directories: %v", promptFile, promptDirs)
	}
	return promptPath, nil
}

// processArgs parses key:value template arguments
func processArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if len(arg) >= 2 && strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
			arg = arg[1 : len(arg)-1]
		}

		key, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid argument format: %s. Expected format: key:value", arg)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid argument format: %s. Key must not be empty", arg)
		}
		if key == "input" {
			return nil, fmt.Errorf("'input' is a reserved keyword and cannot be used as a key")
		}

		value = strings.TrimSpace(value)
		value = strings.ReplaceAll(value, `\:`, ":")
		value = strings.ReplaceAll(value, `\"`, `"`)
		result[key] = value
	}
	return result, nil
}
