// Package exa is a minimal client for the Exa answer API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm/internal/resilience"
)

const defaultBaseURL = "https://api.exa.ai"

// Client answers natural-language questions grounded in web search.
type Client interface {
	Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error)
}

// AnswerRequest is the body for POST /answer.
type AnswerRequest struct {
	Query string `json:"query"`
	Text  bool   `json:"text,omitempty"`
}

// AnswerResponse is the response from POST /answer.
type AnswerResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Citation is a source backing the answer.
type Citation struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Exa API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, eris.New("exa: empty query")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "exa: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "exa: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "exa: send request")
	}
	if err := resilience.CheckResponse(resp, "exa"); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "exa: unmarshal response")
	}
	return &out, nil
}
