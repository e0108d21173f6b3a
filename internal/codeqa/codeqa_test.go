package codeqa

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRepositoryOrNil(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *string
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "   ", want: nil},
		{name: "name", input: "backend", want: ptr("backend")},
		{name: "trimmed", input: " backend ", want: ptr("backend")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepositoryOrNil(tt.input))
		})
	}
}

func TestFormatRepository(t *testing.T) {
	assert.Equal(t, "(all repositories)", FormatRepository(nil))
	assert.Equal(t, "backend", FormatRepository(ptr("backend")))
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "Error: An unknown error occurred"},
		{name: "status", err: &TransportError{StatusCode: 500}, want: "Error: HTTP error, status: 500"},
		{
			name: "status with detail",
			err:  &TransportError{StatusCode: 404, Message: "Template not found"},
			want: "Error: HTTP error, status: 404 (Template not found)",
		},
		{
			name: "transport cause",
			err:  &TransportError{Message: "sending request", Cause: fmt.Errorf("connection refused")},
			want: "Error: sending request: connection refused",
		},
		{
			name: "read error",
			err:  &StreamReadError{Cause: io.ErrUnexpectedEOF},
			want: "Error: reading answer stream: unexpected EOF",
		},
		{
			name: "cancelled",
			err:  &StreamReadError{Cause: errors.Wrap(context.Canceled, "read")},
			want: "Error: request cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorText(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	var readErr *StreamReadError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", &StreamReadError{Cause: cause}), &readErr))
	assert.True(t, errors.Is(readErr, cause))

	var transportErr *TransportError
	assert.True(t, errors.As(&TransportError{StatusCode: 502}, &transportErr))
	assert.Equal(t, 502, transportErr.StatusCode)
}

func ptr(s string) *string {
	return &s
}
