package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/cache"
	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/store"
)

// memDrafts is an in-memory DraftStore for handler tests.
type memDrafts struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemDrafts() *memDrafts {
	return &memDrafts{data: make(map[string][]byte)}
}

func (m *memDrafts) GetDraft(_ context.Context, sessionID, flowName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[sessionID+"/"+flowName]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (m *memDrafts) SetDraft(_ context.Context, sessionID, flowName string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID+"/"+flowName] = data
	return nil
}

func (m *memDrafts) DeleteDraft(_ context.Context, sessionID, flowName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID+"/"+flowName)
	return nil
}

// fakeSender records notification requests instead of delivering them.
type fakeSender struct {
	mu       sync.Mutex
	requests []*model.NotificationRequest
}

func (s *fakeSender) Send(_ context.Context, req *model.NotificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return nil
}

// testEnv wires handlers against a file store and in-memory fakes.
type testEnv struct {
	store   *store.FileStore
	sender  *fakeSender
	flows   *flow.Flows
	metrics *metrics.InMemoryRecorder
	logger  *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create file store: %v", err)
	}

	sender := &fakeSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flows, err := flow.New(flow.Deps{
		Store:    st,
		Drafts:   newMemDrafts(),
		Sender:   sender,
		BaseURL:  "http://localhost:8080",
		DraftTTL: time.Hour,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("wire flows: %v", err)
	}

	return &testEnv{
		store:   st,
		sender:  sender,
		flows:   flows,
		metrics: metrics.NewInMemory(),
		logger:  logger,
	}
}

// request builds a JSON request carrying a test session.
func request(t *testing.T, method, target, sessionID string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	sess := &auth.Session{SessionID: sessionID, Lang: "en"}
	return req.WithContext(auth.ContextWithSession(req.Context(), sess))
}

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestHandler_Hello(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.Hello(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["message"] != "Hello from FinWell!" {
		t.Errorf("unexpected message: %s", response["message"])
	}

	if response["version"] != "0.1.0" {
		t.Errorf("unexpected version: %s", response["version"])
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Error != "resource not found" {
		t.Errorf("unexpected error message: %s", resp.Error)
	}
	if resp.Code != "NOT_FOUND" {
		t.Errorf("unexpected error code: %s", resp.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Error != "method not allowed" {
		t.Errorf("unexpected error message: %s", resp.Error)
	}
}
