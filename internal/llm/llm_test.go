package llm_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/scopeguard/internal/llm"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	}
}

func newClient(t *testing.T, baseURL string, delays *[]time.Duration) *llm.Client {
	t.Helper()
	client, err := llm.NewClient(llm.Config{APIKey: "test-key", BaseURL: baseURL},
		llm.WithRetryMaxAttempts(3),
		llm.WithRetryBackoff(10*time.Millisecond, 40*time.Millisecond),
		llm.WithSleeper(func(d time.Duration) {
			if delays != nil {
				*delays = append(*delays, d)
			}
		}),
	)
	require.NoError(t, err)
	return client
}

func TestCompleteJSON_SendsJSONModeRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"deliverables":[]}`))
	}))
	defer server.Close()

	content, err := newClient(t, server.URL, nil).CompleteJSON(t.Context(), "system prompt", "user prompt")
	require.NoError(t, err)
	require.Equal(t, `{"deliverables":[]}`, content)

	require.Equal(t, "gpt-4o", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "json_object", format["type"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestCompleteJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"alerts":[]}`))
	}))
	defer server.Close()

	var delays []time.Duration
	content, err := newClient(t, server.URL, &delays).CompleteJSON(t.Context(), "system", "user")
	require.NoError(t, err)
	require.Equal(t, `{"alerts":[]}`, content)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
}

func TestCompleteJSON_ExhaustedRetriesIsUpstreamError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, nil).CompleteJSON(t.Context(), "system", "user")
	require.Error(t, err)
	require.ErrorIs(t, err, llm.ErrUpstream)
	require.Equal(t, int32(3), calls.Load())
}

func TestCompleteJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, nil).CompleteJSON(t.Context(), "system", "user")
	require.ErrorIs(t, err, llm.ErrUpstream)
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_NotConfigured(t *testing.T) {
	client, err := llm.NewClient(llm.Config{})
	require.NoError(t, err)
	require.False(t, client.Configured())

	_, err = client.CompleteJSON(t.Context(), "system", "user")
	require.ErrorIs(t, err, llm.ErrNotConfigured)
	require.ErrorIs(t, err, llm.ErrUpstream)

	_, err = client.Transcribe(t.Context(), []byte("audio"), "call.mp3")
	require.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestTranscribe_PostsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "call.m4a", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "fake-audio", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  Can you also build a mobile app?  "}`))
	}))
	defer server.Close()

	text, err := newClient(t, server.URL, nil).Transcribe(t.Context(), []byte("fake-audio"), "/tmp/call.m4a")
	require.NoError(t, err)
	require.Equal(t, "Can you also build a mobile app?", text)
}

func TestTranscribe_RetriesAndReplaysBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		_ = file.Close()
		require.Equal(t, "fake-audio", string(data))

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"text":"hello"}`))
	}))
	defer server.Close()

	text, err := newClient(t, server.URL, nil).Transcribe(t.Context(), []byte("fake-audio"), "")
	require.NoError(t, err)
	require.Equal(t, "hello", text)
	require.Equal(t, int32(2), calls.Load())
}

func TestTranscribe_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported audio format", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, nil).Transcribe(t.Context(), []byte("x"), "a.wav")
	require.ErrorIs(t, err, llm.ErrUpstream)

	var upstream *llm.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	require.Contains(t, upstream.Error(), "unsupported audio format")
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain", content: `{"a":["x"]}`},
		{name: "fenced", content: "```json\n{\"a\":[\"x\"]}\n```"},
		{name: "prose around", content: "Here is the result: {\"a\":[\"x\"]} hope it helps"},
		{name: "empty", content: "  ", wantErr: true},
		{name: "garbage", content: "no json here", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				A []string `json:"a"`
			}
			err := llm.DecodeJSON(tt.content, &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []string{"x"}, out.A)
		})
	}
}

func TestSnippet(t *testing.T) {
	require.Equal(t, "<empty>", llm.Snippet(" \n "))
	require.Equal(t, "a b c", llm.Snippet("a\n  b\tc"))
	long := strings.Repeat("x", 200)
	require.Len(t, []rune(llm.Snippet(long)), 163)
}
