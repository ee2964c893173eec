package testserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeLLM is an OpenAI-compatible stand-in. Extraction requests return
// ScopeJSON; detection requests (system prompt mentions scope creep) are
// answered by Detect; transcription returns Transcript.
type FakeLLM struct {
	Server *httptest.Server

	mu          sync.Mutex
	scopeJSON   string
	detect      func(transcript string) string
	transcript  string
	chatStatus  int
	audioStatus int
	chatCalls   int
	audioCalls  int
}

// NewFakeLLM starts a fake model service closed with the test.
func NewFakeLLM(t *testing.T) *FakeLLM {
	t.Helper()
	f := &FakeLLM{
		scopeJSON: `{"deliverables":[],"exclusions":[],"constraints":[]}`,
		detect:    func(string) string { return `{"alerts":[]}` },
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", f.handleChat)
	mux.HandleFunc("POST /audio/transcriptions", f.handleAudio)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to configure the client with.
func (f *FakeLLM) URL() string { return f.Server.URL }

func (f *FakeLLM) SetScope(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopeJSON = content
}

func (f *FakeLLM) SetDetect(fn func(transcript string) string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detect = fn
}

func (f *FakeLLM) SetTranscript(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcript = text
}

// FailChat makes chat completions answer with status; 0 restores success.
func (f *FakeLLM) FailChat(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatStatus = status
}

// FailAudio makes transcriptions answer with status; 0 restores success.
func (f *FakeLLM) FailAudio(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioStatus = status
}

func (f *FakeLLM) ChatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatCalls
}

func (f *FakeLLM) AudioCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioCalls
}

type chatRequest struct {
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func (f *FakeLLM) handleChat(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.chatCalls++
	status, scopeJSON, detect := f.chatStatus, f.scopeJSON, f.detect
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, `{"error":{"message":"fake failure"}}`, status)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var system, user string
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = messageText(msg.Content)
		case "user":
			user = messageText(msg.Content)
		}
	}

	content := scopeJSON
	if strings.Contains(system, "scope creep") {
		transcript := user
		if _, after, ok := strings.Cut(user, "Meeting Transcript:\n"); ok {
			transcript = after
		}
		content = detect(transcript)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-fake",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	})
}

// messageText accepts both string content and an array of text parts.
func messageText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

func (f *FakeLLM) handleAudio(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.audioCalls++
	status, transcript := f.audioStatus, f.transcript
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "fake transcription failure", status)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"text": transcript})
}
