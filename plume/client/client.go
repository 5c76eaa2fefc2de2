package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"plume/plume/sources/mongo/models"
	"plume/plume/sources/storage"
	"plume/plume/utils/apperrors"
	"plume/plume/utils/types"
)

// RetryPolicy bounds the retry loop on rate-limit responses. Backoff is the
// per-retry delay multiplier: read paths historically kept a fixed delay
// (Backoff 1), the write path doubled it each attempt (Backoff 2). Both are
// preserved here as policy data.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
	Backoff float64
}

var (
	ReadRetry  = RetryPolicy{Retries: 3, Delay: time.Second, Backoff: 1}
	WriteRetry = RetryPolicy{Retries: 3, Delay: time.Second, Backoff: 2}
)

// Client is the typed API surface the chat view talks to. It attaches the
// session token, retries rate-limited requests within the policy budget, and
// keeps a small transcript cache invalidated on writes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *chatCache

	// sleep is swapped out by tests to observe backoff delays.
	sleep func(time.Duration)
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   newChatCache(),
		sleep:   time.Sleep,
	}
}

// fetchWithRetry attempts the request once per budget unit. On 429 it waits
// for the server-suggested Retry-After (seconds) or the current policy
// delay, then retries with the delay scaled by Backoff. Any other failure
// surfaces immediately. On success the body is decoded into out when the
// response declares JSON, otherwise returned as raw text.
func (c *Client) fetchWithRetry(ctx context.Context, method, path string, body []byte, policy RetryPolicy, out interface{}) (string, error) {
	retries := policy.Retries
	delay := policy.Delay

	for {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return "", err
		}
		text, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", readErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if retries <= 0 {
				return "", fmt.Errorf("%w: %s %s", apperrors.ErrRateLimited, method, path)
			}
			wait := delay
			if after := resp.Header.Get("Retry-After"); after != "" {
				if secs, err := strconv.Atoi(after); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			c.sleep(wait)
			retries--
			delay = time.Duration(float64(delay) * policy.Backoff)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", statusError(resp.StatusCode, string(text))
		}

		if out != nil && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
			if err := json.Unmarshal(text, out); err != nil {
				return "", fmt.Errorf("parse response: %w", err)
			}
		}
		return string(text), nil
	}
}

func statusError(code int, body string) error {
	body = strings.TrimSpace(body)
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, body)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, body)
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	default:
		return fmt.Errorf("request failed with status %d: %s", code, body)
	}
}

// CreateChat opens a chat from the first user message and returns the new
// chat id (the server replies with the raw id string).
func (c *Client) CreateChat(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(types.CreateChatRequest{Text: text})
	if err != nil {
		return "", err
	}
	id, err := c.fetchWithRetry(ctx, http.MethodPost, "/api/chats", body, WriteRetry, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

// ListUserChats fetches the caller's chat summaries.
func (c *Client) ListUserChats(ctx context.Context) ([]models.ChatSummary, error) {
	var summaries []models.ChatSummary
	if _, err := c.fetchWithRetry(ctx, http.MethodGet, "/api/userchats", nil, ReadRetry, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetChat fetches a full transcript, serving repeat reads from the cache
// until a write invalidates it.
func (c *Client) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	if chat, ok := c.cache.get(id); ok {
		return chat, nil
	}
	var chat models.Chat
	if _, err := c.fetchWithRetry(ctx, http.MethodGet, "/api/chats/"+id, nil, ReadRetry, &chat); err != nil {
		return nil, err
	}
	c.cache.put(id, &chat)
	return &chat, nil
}

// AppendTurn persists a finished exchange and invalidates the cached
// transcript so the next read reflects the stored turn.
func (c *Client) AppendTurn(ctx context.Context, id string, req types.AppendTurnRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if _, err := c.fetchWithRetry(ctx, http.MethodPut, "/api/chats/"+id, body, WriteRetry, nil); err != nil {
		return err
	}
	c.cache.invalidate(id)
	return nil
}

// InvalidateChat drops a cached transcript without a write, for callers that
// know it is stale.
func (c *Client) InvalidateChat(id string) {
	c.cache.invalidate(id)
}

// UploadAuth fetches signed upload parameters for a direct-to-host upload.
func (c *Client) UploadAuth(ctx context.Context) (storage.UploadAuth, error) {
	var auth storage.UploadAuth
	if _, err := c.fetchWithRetry(ctx, http.MethodGet, "/api/upload", nil, ReadRetry, &auth); err != nil {
		return storage.UploadAuth{}, err
	}
	return auth, nil
}
