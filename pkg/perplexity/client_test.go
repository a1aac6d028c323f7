package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm/internal/resilience"
)

func TestChatCompletion(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       string
		wantTransient bool
		wantContent   string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"id": "cmpl-123",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}}],
				"citations": ["https://example.com"],
				"usage": {"prompt_tokens": 10, "completion_tokens": 5}
			}`,
			wantContent: "Hello!",
		},
		{
			name:          "rate_limit",
			status:        http.StatusTooManyRequests,
			body:          `{"error": "rate limit exceeded"}`,
			wantErr:       "status 429",
			wantTransient: true,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error": "bad key"}`,
			wantErr: "status 401",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				body, _ := io.ReadAll(r.Body)
				var req ChatCompletionRequest
				require.NoError(t, json.Unmarshal(body, &req))
				assert.Equal(t, "sonar-test", req.Model)
				assert.False(t, req.Stream)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			c := NewClient("test-key", WithBaseURL(srv.URL), WithModel("sonar-test"))
			resp, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{
				Messages: []Message{{Role: "user", Content: "hi"}},
			})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, resp.Content())
			assert.Equal(t, []string{"https://example.com"}, resp.Citations)
		})
	}
}

func TestStreamChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req ChatCompletionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.True(t, req.Stream)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{
			`{"id":"s1","choices":[{"index":0,"delta":{"content":"{\"industry\":"}}]}`,
			`{"id":"s1","choices":[{"index":0,"delta":{"content":"\"Software\"}"}}],"citations":["https://a.example"]}`,
			`{"id":"s1","choices":[{"index":0,"delta":{}}],"usage":{"prompt_tokens":3,"completion_tokens":9}}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	var deltas []string
	c := NewClient("k", WithBaseURL(srv.URL))
	resp, err := c.StreamChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []Message{{Role: "user", Content: "Acme"}},
	}, func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, []string{`{"industry":`, `"Software"}`}, deltas)
	assert.Equal(t, `{"industry":"Software"}`, resp.Content())
	assert.Equal(t, "s1", resp.ID)
	assert.Equal(t, 9, resp.Usage.CompletionTokens)
	assert.Equal(t, []string{"https://a.example"}, resp.Citations)
}

func TestStreamChatCompletion_BadChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {oops\n\n")
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).StreamChatCompletion(context.Background(), ChatCompletionRequest{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stream chunk")
}

func TestStreamChatCompletion_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient("k", WithBaseURL(srv.URL)).StreamChatCompletion(ctx, ChatCompletionRequest{}, nil)
	require.Error(t, err)
}
