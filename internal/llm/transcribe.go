package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const maxErrorBody = 4 << 10

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe posts audio to the speech-to-text endpoint and returns the text.
// An empty result is returned as "" without error; callers decide what it means.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	const op = "audio transcription"
	if len(audio) == 0 {
		return "", errors.New("audio is empty")
	}
	if !c.Configured() {
		return "", &UpstreamError{Op: op, Err: ErrNotConfigured}
	}

	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "audio.mp3"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("model", c.cfg.TranscriptionModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("write format field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	// bytes.Reader bodies get GetBody, so the retry transport can replay them.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(Snippet(string(detail)))}
	}

	var decoded transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &UpstreamError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return strings.TrimSpace(decoded.Text), nil
}
