package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClientComplete(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello  "}}]}`))
	}))
	t.Cleanup(ts.Close)

	client := NewChatClient(" secret ", ts.URL, "llama-3.1-8b-instant", time.Second)
	text, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.5, 40)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.Equal(t, 40, got.MaxTokens)
}

func TestChatClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "status", status: http.StatusTooManyRequests, body: `{}`, want: "(429)"},
		{name: "api error", status: http.StatusOK, body: `{"error":{"message":"bad model"}}`, want: "bad model"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, want: "no choices"},
		{name: "empty", status: http.StatusOK, body: `{"choices":[{"message":{"content":" "}}]}`, want: "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(ts.Close)

			_, err := NewChatClient("k", ts.URL, "m", time.Second).Complete(context.Background(), nil, 0, 0)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestChatClientWithoutKey(t *testing.T) {
	_, err := NewChatClient("", "http://unused", "m", time.Second).Complete(context.Background(), nil, 0, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
