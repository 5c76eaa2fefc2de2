package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"plume/plume/sources/mongo/models"
	"plume/plume/utils/apperrors"
	"plume/plume/utils/types"
)

// scriptedServer replays a fixed sequence of status codes, serving the given
// body on the first success.
type scriptedServer struct {
	mu       sync.Mutex
	statuses []int
	hits     int
	body     string
	jsonBody bool
	headers  map[string]string
}

func (s *scriptedServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		status := http.StatusOK
		if s.hits < len(s.statuses) {
			status = s.statuses[s.hits]
		}
		s.hits++
		for k, v := range s.headers {
			w.Header().Set(k, v)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if s.jsonBody {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain")
		}
		w.WriteHeader(status)
		w.Write([]byte(s.body))
	}
}

func (s *scriptedServer) hitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func testClient(t *testing.T, srv *httptest.Server) (*Client, *[]time.Duration) {
	t.Helper()
	c := New(srv.URL, "token")
	var delays []time.Duration
	c.sleep = func(d time.Duration) { delays = append(delays, d) }
	return c, &delays
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	script := &scriptedServer{statuses: []int{429, 429, 200}, body: "abc123"}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	c, delays := testClient(t, srv)
	got, err := c.fetchWithRetry(context.Background(), http.MethodPut, "/", []byte("{}"), WriteRetry, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got != "abc123" {
		t.Errorf("body = %q, want abc123", got)
	}
	if len(*delays) != 2 {
		t.Fatalf("expected exactly 2 delays, got %d", len(*delays))
	}
	if (*delays)[1] < (*delays)[0] {
		t.Errorf("second delay %v must be >= first %v", (*delays)[1], (*delays)[0])
	}
	if script.hitCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", script.hitCount())
	}
}

func TestWritePathDoublesDelay(t *testing.T) {
	script := &scriptedServer{statuses: []int{429, 429, 429, 200}, body: "ok"}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	c, delays := testClient(t, srv)
	if _, err := c.fetchWithRetry(context.Background(), http.MethodPut, "/", nil, WriteRetry, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, d, want[i])
		}
	}
}

func TestReadPathKeepsFixedDelay(t *testing.T) {
	script := &scriptedServer{statuses: []int{429, 429, 429, 200}, body: "ok"}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	c, delays := testClient(t, srv)
	if _, err := c.fetchWithRetry(context.Background(), http.MethodGet, "/", nil, ReadRetry, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, d := range *delays {
		if d != time.Second {
			t.Errorf("delay[%d] = %v, want 1s on the read path", i, d)
		}
	}
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	script := &scriptedServer{statuses: []int{429, 429, 429, 429}}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	c, delays := testClient(t, srv)
	_, err := c.fetchWithRetry(context.Background(), http.MethodGet, "/", nil, ReadRetry, nil)
	if !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
	// budget of 3 retries: 4 attempts, 3 waits
	if script.hitCount() != 4 {
		t.Errorf("expected 4 attempts, got %d", script.hitCount())
	}
	if len(*delays) != 3 {
		t.Errorf("expected 3 delays, got %d", len(*delays))
	}
}

func TestFetchHonorsRetryAfterHeader(t *testing.T) {
	script := &scriptedServer{
		statuses: []int{429, 200},
		body:     "ok",
		headers:  map[string]string{"Retry-After": "7"},
	}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	c, delays := testClient(t, srv)
	if _, err := c.fetchWithRetry(context.Background(), http.MethodGet, "/", nil, ReadRetry, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*delays) != 1 || (*delays)[0] != 7*time.Second {
		t.Errorf("expected one 7s delay from Retry-After, got %v", *delays)
	}
}

func TestFetchDoesNotRetryOtherFailures(t *testing.T) {
	script := &scriptedServer{statuses: []int{404}}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	c, delays := testClient(t, srv)
	_, err := c.fetchWithRetry(context.Background(), http.MethodGet, "/", nil, ReadRetry, nil)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if len(*delays) != 0 {
		t.Errorf("non-retryable failure must not wait, got %d delays", len(*delays))
	}
	if script.hitCount() != 1 {
		t.Errorf("expected a single attempt, got %d", script.hitCount())
	}
}

func TestCreateChatParsesRawIDBody(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(id))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	got, err := c.CreateChat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}
	if got != id {
		t.Errorf("id = %q, want %q", got, id)
	}
}

func TestGetChatCachesUntilInvalidated(t *testing.T) {
	chat := models.Chat{ID: primitive.NewObjectID(), UserID: "u", History: []models.Turn{}}
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chat)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	ctx := context.Background()
	id := chat.ID.Hex()

	if _, err := c.GetChat(ctx, id); err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if _, err := c.GetChat(ctx, id); err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("second read must come from cache, server saw %d hits", hits)
	}

	c.InvalidateChat(id)
	if _, err := c.GetChat(ctx, id); err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if hits != 2 {
		t.Errorf("read after invalidation must hit the server, saw %d hits", hits)
	}
}

func TestAppendTurnInvalidatesCache(t *testing.T) {
	chat := models.Chat{ID: primitive.NewObjectID(), UserID: "u", History: []models.Turn{}}
	var gets int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.Write([]byte("chat updated"))
			return
		}
		gets++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chat)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	ctx := context.Background()
	id := chat.ID.Hex()
	answer := "done"

	c.GetChat(ctx, id)
	if err := c.AppendTurn(ctx, id, types.AppendTurnRequest{Answer: &answer}); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	c.GetChat(ctx, id)
	if gets != 2 {
		t.Errorf("transcript read after write must bypass cache, server saw %d GETs", gets)
	}
}
