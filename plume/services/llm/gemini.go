package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"plume/plume/config"
	"plume/plume/utils/logging"
)

// Wire types of the generation service: role-tagged contents, each a list of
// parts holding text and/or an inline image payload.

type Blob struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"` // "user" | "model"
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents []Content `json:"contents"`
}

type generateChunk struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Generator is the generation-service contract: feed it the prior turn
// history plus the new message, get back an asynchronous sequence of text
// chunks terminated by stream end.
type Generator interface {
	RunStream(ctx context.Context, contents []Content) (<-chan string, <-chan error)
}

type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewGeminiClient(cfg config.Config) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// RunStream opens a streamed completion and forwards text chunks on the
// returned channel until the server closes the stream. The error channel
// carries at most one error; both channels are closed when the stream ends.
func (c *GeminiClient) RunStream(ctx context.Context, contents []Content) (<-chan string, <-chan error) {
	ch := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)
		defer logging.LogDuration(ctx, "gemini_run_stream")()

		body, err := json.Marshal(generateRequest{Contents: contents})
		if err != nil {
			errCh <- err
			return
		}
		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, c.model, c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			errCh <- err
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			errCh <- err
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			errCh <- fmt.Errorf("generation service: bad status %d", resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" || payload == "[DONE]" {
				continue
			}
			var chunk generateChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				logging.ErrorLogger.Error("generation stream decode error", zap.Error(err))
				errCh <- err
				return
			}
			for _, cand := range chunk.Candidates {
				for _, part := range cand.Content.Parts {
					if part.Text == "" {
						continue
					}
					select {
					case ch <- part.Text:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
		}
	}()

	return ch, errCh
}
