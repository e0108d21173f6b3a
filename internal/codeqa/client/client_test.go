package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStream_RequestBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, QueryStreamPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "codeqa-test", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, `{"type":"end","execution_time":0.1}`+"\n")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", UserAgent: "codeqa-test"})
	body, err := c.QueryStream(context.Background(), QueryRequest{
		Question:       "What does foo do?",
		TemplateName:   codeqa.DefaultTemplateName,
		IncludeContext: true,
	})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"end","execution_time":0.1}`+"\n", string(data))

	assert.Equal(t, map[string]any{
		"question":        "What does foo do?",
		"repository":      nil,
		"template_name":   "code_qa_template",
		"include_context": true,
	}, got)
}

func TestQueryStream_RepositoryIsSent(t *testing.T) {
	var got QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	repo := "backend"
	body, err := NewClient(Config{BaseURL: srv.URL}).QueryStream(context.Background(), QueryRequest{
		Question:   "q",
		Repository: &repo,
	})
	require.NoError(t, err)
	body.Close()

	require.NotNil(t, got.Repository)
	assert.Equal(t, "backend", *got.Repository)
}

func TestQueryStream_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantText    string
	}{
		{
			name:     "bare 500",
			status:   http.StatusInternalServerError,
			wantText: "Error: HTTP error, status: 500",
		},
		{
			name:        "detail string",
			status:      http.StatusNotFound,
			body:        `{"detail":"Repository not found"}`,
			wantMessage: "Repository not found",
			wantText:    "Error: HTTP error, status: 404 (Repository not found)",
		},
		{
			name:        "validation detail",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","question"]}]}`,
			wantMessage: `[{"loc":["body","question"]}]`,
		},
		{
			name:        "plain text",
			status:      http.StatusBadGateway,
			body:        "upstream\n  unavailable\n",
			wantMessage: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			body, err := NewClient(Config{BaseURL: srv.URL}).QueryStream(context.Background(), QueryRequest{Question: "q"})
			require.Error(t, err)
			assert.Nil(t, body)

			var transportErr *codeqa.TransportError
			require.True(t, errors.As(err, &transportErr))
			assert.Equal(t, tt.status, transportErr.StatusCode)
			assert.Equal(t, tt.wantMessage, transportErr.Message)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, codeqa.ErrorText(err))
			}
		})
	}
}

func TestQueryStream_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).QueryStream(context.Background(), QueryRequest{Question: "q"})
	var transportErr *codeqa.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, 0, transportErr.StatusCode)
	assert.Equal(t, "sending request", transportErr.Message)
}

func TestQueryStream_BodyOutlivesRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = io.WriteString(w, `{"type":"content","content":"a"}`+"\n")
		flusher.Flush()
		time.Sleep(150 * time.Millisecond)
		_, _ = io.WriteString(w, `{"type":"end","execution_time":0.2}`+"\n")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond})
	body, err := c.QueryStream(context.Background(), QueryRequest{Question: "q"})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"end"`)
}

func TestQueryStream_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	body, err := NewClient(Config{BaseURL: srv.URL}).QueryStream(ctx, QueryRequest{Question: "q"})
	require.NoError(t, err)
	defer body.Close()

	cancel()
	_, err = io.ReadAll(body)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RepositoriesPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"repositories":["backend","frontend"]}`)
	}))
	defer srv.Close()

	repos, err := NewClient(Config{BaseURL: srv.URL}).Repositories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "frontend"}, repos)
}

func TestRepositories_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{`)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Repositories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing repositories")
}

func TestTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TemplatesPath:
			_, _ = io.WriteString(w, `{"templates":[{"name":"code_qa_template","path":"templates/code_qa_template.txt"}]}`)
		case TemplatePath + "code_qa_template":
			_, _ = io.WriteString(w, `{"name":"code_qa_template","content":"Answer {question}"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Template not found"}`)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	templates, err := c.Templates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TemplateInfo{{Name: "code_qa_template", Path: "templates/code_qa_template.txt"}}, templates)

	content, err := c.Template(context.Background(), "code_qa_template")
	require.NoError(t, err)
	assert.Equal(t, "Answer {question}", content)

	_, err = c.Template(context.Background(), "missing")
	var transportErr *codeqa.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
	assert.Equal(t, "Template not found", transportErr.Message)

	_, err = c.Template(context.Background(), " ")
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Zero(t, c.streamClient.Timeout)
}
