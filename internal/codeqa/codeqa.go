// Package codeqa provides the core abstractions of the code question answering client.
// It defines the conversation message model, the error kinds surfaced to the UI, and the
// Accumulator that splits a streamed answer from the retrieval context appended to it.
//
// The streaming pieces live in sub-packages:
//
//	stream        decodes the newline-delimited JSON answer stream into events
//	conversation  holds the observable conversation state
//	session       runs one question/answer turn against the backend
//	client        talks HTTP to the backend
//	retrieval     splits the retrieval context into per-file sections
//	prompt        loads local question templates
//	config        loads the client configuration
package codeqa

import "strings"

const (
	// ContextDelimiter separates the answer from the retrieval context in the
	// concatenated content of a streamed answer. Matching is exact and case-sensitive.
	ContextDelimiter = "--- CONTEXT_DELIMITER ---"

	// DefaultTemplateName is the server-side prompt template used for questions.
	DefaultTemplateName = "code_qa_template"
)

// RepositoryOrNil converts a repository name into the nullable form used on the wire.
// An empty or blank name means "all repositories" and yields nil.
//
// Example:
//
//	repo := RepositoryOrNil("  ")
//	// repo == nil
func RepositoryOrNil(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

// FormatRepository returns a display label for a nullable repository.
func FormatRepository(repository *string) string {
	if repository == nil {
		return "(all repositories)"
	}
	return *repository
}
