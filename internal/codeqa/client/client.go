// Package client talks to the code question answering backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultRequestTimeout = 30 * time.Second

	QueryStreamPath  = "/api/query/stream"
	RepositoriesPath = "/api/repositories"
	TemplatesPath    = "/api/templates"
	TemplatePath     = "/api/template/"
)

// maxErrorExcerpt bounds how much of an error response body is kept.
const maxErrorExcerpt = 512

// Config configures a Client.
type Config struct {
	BaseURL string
	// RequestTimeout bounds the non-streaming listing calls. Zero means none.
	RequestTimeout time.Duration
	// StreamHeaderTimeout bounds the wait for the answer stream's response
	// headers. Zero means none. The body itself is never timed out.
	StreamHeaderTimeout time.Duration
	UserAgent           string
}

// QueryRequest is the body of a streaming query.
type QueryRequest struct {
	Question       string  `json:"question"`
	Repository     *string `json:"repository"` // null queries all repositories
	TemplateName   string  `json:"template_name"`
	IncludeContext bool    `json:"include_context"`
}

// RepositoryListResponse is returned by the repository listing endpoint.
type RepositoryListResponse struct {
	Repositories []string `json:"repositories"`
}

// TemplateInfo describes a server-side prompt template.
type TemplateInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// TemplateListResponse is returned by the template listing endpoint.
type TemplateListResponse struct {
	Templates []TemplateInfo `json:"templates"`
}

// TemplateContentResponse is returned for a single template.
type TemplateContentResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Client is the backend HTTP client. It is safe for concurrent use.
type Client struct {
	baseURL      string
	userAgent    string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a Client. An empty BaseURL selects DefaultBaseURL.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	streamTransport := transport.Clone()
	streamTransport.ResponseHeaderTimeout = cfg.StreamHeaderTimeout

	return &Client{
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		// No Timeout: it would cut long answers off mid-stream.
		streamClient: &http.Client{Transport: streamTransport},
	}
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// QueryStream posts a question and returns the open answer stream. The caller
// must close it. A request that cannot be sent, or a response with a non-2xx
// status, yields a *codeqa.TransportError.
func (c *Client) QueryStream(ctx context.Context, req QueryRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encoding query")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QueryStreamPath, bytes.NewReader(body))
	if err != nil {
		return nil, &codeqa.TransportError{Message: "creating request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	c.setUserAgent(httpReq)

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, &codeqa.TransportError{Message: "sending request", Cause: err}
	}

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Repositories lists the repositories the backend can answer questions about.
func (c *Client) Repositories(ctx context.Context) ([]string, error) {
	var out RepositoryListResponse
	if err := c.getJSON(ctx, RepositoriesPath, &out); err != nil {
		return nil, errors.Wrap(err, "listing repositories")
	}
	return out.Repositories, nil
}

// Templates lists the server-side prompt templates.
func (c *Client) Templates(ctx context.Context) ([]TemplateInfo, error) {
	var out TemplateListResponse
	if err := c.getJSON(ctx, TemplatesPath, &out); err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	return out.Templates, nil
}

// Template returns the content of one server-side prompt template.
func (c *Client) Template(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("template name must not be empty")
	}
	var out TemplateContentResponse
	if err := c.getJSON(ctx, TemplatePath+url.PathEscape(name), &out); err != nil {
		return "", errors.Wrapf(err, "fetching template %q", name)
	}
	return out.Content, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &codeqa.TransportError{Message: "creating request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &codeqa.TransportError{Message: "sending request", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// checkStatus turns a non-2xx response into a *codeqa.TransportError and
// closes its body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
	return &codeqa.TransportError{
		StatusCode: resp.StatusCode,
		Message:    errorDetail(excerpt),
	}
}

// errorDetail extracts the {"detail": ...} message the backend sends with its
// errors, falling back to the trimmed body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch d := payload.Detail.(type) {
		case string:
			return d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
	}
	return strings.Join(strings.Fields(string(body)), " ")
}
