// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/auth"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/contrived"
	"github.com/danielhkuo/ranked-elections/models"
	"github.com/danielhkuo/ranked-elections/store"
	"github.com/danielhkuo/ranked-elections/testutil"
)

type memoryLog struct {
	mu      sync.Mutex
	entries []models.RequestLogEntry
	err     error
}

func (m *memoryLog) InsertRequestLog(_ context.Context, e models.RequestLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.err
}

type fixedLimiter struct {
	decision models.RateLimitDecision
	err      error
	calls    int
}

func (f *fixedLimiter) IsRateLimited(context.Context, string, string) (models.RateLimitDecision, error) {
	f.calls++
	return f.decision, f.err
}

type harness struct {
	dispatcher *Dispatcher
	logs       *memoryLog
	limiter    *fixedLimiter
	key        string
}

func setup(t *testing.T, mutate func(*cliparse.Config)) *harness {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{
		logs:    &memoryLog{},
		limiter: &fixedLimiter{},
		key:     testutil.CreateTestKey(t, conn, "tester"),
	}
	h.dispatcher = NewDispatcher(cfg, store.New(conn), h.logs, h.limiter, contrived.New(cfg.RequestsPerContrivedError))
	return h
}

func okHandler(w *Response, r *http.Request) error {
	w.Send(http.StatusOK, models.CreateElectionResponse{ElectionID: "abc"})
	return nil
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	testutil.AssertJSON(t, w, &body)
	return body
}

func TestDispatcher_AuthBeforeMethod(t *testing.T) {
	h := setup(t, nil)
	handler := h.dispatcher.Handle([]string{"GET"}, okHandler)

	req := testutil.MakeRequest("DELETE", "/api/v1/meta", nil, testutil.KeyHeader("not-a-key"))
	w := serve(handler, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	if len(h.logs.entries) != 1 || h.logs.entries[0].Status != http.StatusUnauthorized {
		t.Errorf("expected one 401 log entry, got %+v", h.logs.entries)
	}
}

func TestDispatcher_Authentication(t *testing.T) {
	unregistered, _ := auth.NewAPIKey()

	testCases := []struct {
		name     string
		key      string
		lockout  bool
		expected int
	}{
		{"missing key", "", false, http.StatusUnauthorized},
		{"malformed key", "abc", false, http.StatusUnauthorized},
		{"null key", auth.NullKey, false, http.StatusUnauthorized},
		{"unregistered key", unregistered, false, http.StatusUnauthorized},
		{"registered key", "", false, http.StatusOK},
		{"lockout rejects registered key", "", true, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := setup(t, func(cfg *cliparse.Config) { cfg.LockoutAllKeys = tc.lockout })
			key := tc.key
			if tc.expected == http.StatusOK || tc.lockout {
				key = h.key
			}

			w := serve(h.dispatcher.Handle([]string{"GET"}, okHandler),
				testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(key)))

			testutil.AssertStatus(t, w, tc.expected)
			if tc.expected == http.StatusUnauthorized {
				body := decodeBody(t, w)
				if body["error"] != unauthenticated {
					t.Errorf("unexpected body %v", body)
				}
			}
		})
	}
}

func TestDispatcher_Methods(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		mutate   func(*cliparse.Config)
		expected int
	}{
		{"whitelisted", "GET", nil, http.StatusOK},
		{"not whitelisted", "PATCH", nil, http.StatusMethodNotAllowed},
		{"globally disallowed", "GET", func(c *cliparse.Config) { c.DisallowedMethods = []string{"GET"} }, http.StatusMethodNotAllowed},
		{"writes disallowed", "POST", func(c *cliparse.Config) { c.DisallowWrites = true }, http.StatusMethodNotAllowed},
		{"reads survive write lock", "GET", func(c *cliparse.Config) { c.DisallowWrites = true }, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := setup(t, tc.mutate)
			handler := h.dispatcher.Handle([]string{"GET", "POST"}, okHandler)

			w := serve(handler, testutil.MakeRequest(tc.method, "/api/v1/elections", nil, testutil.KeyHeader(h.key)))

			testutil.AssertStatus(t, w, tc.expected)
			if tc.expected == http.StatusMethodNotAllowed && w.Header().Get("Allow") != "GET, POST" {
				t.Errorf("expected Allow header, got %q", w.Header().Get("Allow"))
			}
		})
	}
}

func TestDispatcher_BodyTooLarge(t *testing.T) {
	h := setup(t, func(c *cliparse.Config) { c.MaxContentLengthBytes = 16 })
	handler := h.dispatcher.Handle([]string{"GET", "PUT"}, okHandler)

	body := map[string]string{"voter_id": strings.Repeat("x", 64)}
	w := serve(handler, testutil.MakeRequest("POST", "/api/v1/election/x/voters", body, testutil.KeyHeader(h.key)))

	// Size is checked before the method
	testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestDispatcher_BodyLimitReachesHandler(t *testing.T) {
	h := setup(t, func(c *cliparse.Config) { c.MaxContentLengthBytes = 16 })
	handler := h.dispatcher.Handle([]string{"PUT"}, func(w *Response, r *http.Request) error {
		var v map[string]string
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return apperr.TooLarge()
			}
			return err
		}
		w.Send(http.StatusOK, nil)
		return nil
	})

	req := testutil.MakeRequest("PUT", "/api/v1/election/x", map[string]string{"title": strings.Repeat("x", 64)}, testutil.KeyHeader(h.key))
	req.ContentLength = -1 // chunked, size unknown up front
	w := serve(handler, req)

	testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestDispatcher_Contrived(t *testing.T) {
	h := setup(t, func(c *cliparse.Config) { c.RequestsPerContrivedError = 2 })
	handler := h.dispatcher.Handle([]string{"GET"}, okHandler)

	var statuses []int
	for i := 0; i < 4; i++ {
		w := serve(handler, testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))
		statuses = append(statuses, w.Code)
		if w.Code == StatusContrived {
			body := decodeBody(t, w)
			if body["contrived"] != true {
				t.Errorf("expected contrived flag, got %v", body)
			}
		}
	}

	expected := []int{200, StatusContrived, 200, StatusContrived}
	for i := range expected {
		if statuses[i] != expected[i] {
			t.Fatalf("expected statuses %v, got %v", expected, statuses)
		}
	}
	if h.limiter.calls != 2 {
		t.Errorf("contrived errors must be decided before the rate limit lookup, got %d lookups", h.limiter.calls)
	}
}

func TestDispatcher_RateLimited(t *testing.T) {
	h := setup(t, nil)
	h.limiter.decision = models.RateLimitDecision{Limited: true, RetryAfterMs: 1500}
	handler := h.dispatcher.Handle([]string{"GET"}, okHandler)

	w := serve(handler, testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

	testutil.AssertStatus(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") != "2" {
		t.Errorf("expected Retry-After 2, got %q", w.Header().Get("Retry-After"))
	}
	var body models.RateLimitedResponse
	testutil.AssertJSON(t, w, &body)
	if body.Error != rateLimited || body.RetryAfter != 1500 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestDispatcher_RateLimitBypassAndFailure(t *testing.T) {
	t.Run("ignored", func(t *testing.T) {
		h := setup(t, func(c *cliparse.Config) { c.IgnoreRateLimits = true })
		h.limiter.decision = models.RateLimitDecision{Limited: true, RetryAfterMs: 1000}

		w := serve(h.dispatcher.Handle([]string{"GET"}, okHandler),
			testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

		testutil.AssertStatus(t, w, http.StatusOK)
		if h.limiter.calls != 0 {
			t.Error("limiter should not be consulted")
		}
	})

	t.Run("lookup failure admits", func(t *testing.T) {
		h := setup(t, nil)
		h.limiter.err = errors.New("view unavailable")

		w := serve(h.dispatcher.Handle([]string{"GET"}, okHandler),
			testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

		testutil.AssertStatus(t, w, http.StatusOK)
	})
}

func TestDispatcher_NotImplementedFallback(t *testing.T) {
	h := setup(t, nil)
	handler := h.dispatcher.Handle([]string{"GET"}, func(w *Response, r *http.Request) error {
		return nil
	})

	w := serve(handler, testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

	testutil.AssertStatus(t, w, http.StatusNotImplemented)
	if len(h.logs.entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(h.logs.entries))
	}
	if h.logs.entries[0].Status != http.StatusNotImplemented {
		t.Errorf("expected logged status 501, got %d", h.logs.entries[0].Status)
	}
}

func TestDispatcher_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
		message  string
	}{
		{"validation", apperr.Validation("`title` must be a string"), http.StatusBadRequest, "`title` must be a string"},
		{"not found", apperr.NotFound("abc"), http.StatusNotFound, "item abc does not exist or was not found"},
		{"not authorized", apperr.NotAuthorized(), http.StatusForbidden, "session is not authorized"},
		{"guru", apperr.GuruMeditation("", errors.New("driver")), http.StatusInternalServerError, apperr.ErrGuruMeditation.Message},
		{"unknown", errors.New("pq: secret detail"), http.StatusInternalServerError, apperr.UnexpectedMessage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := setup(t, nil)
			handler := h.dispatcher.Handle([]string{"GET"}, func(w *Response, r *http.Request) error {
				return tc.err
			})

			w := serve(handler, testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

			testutil.AssertStatus(t, w, tc.expected)
			body := decodeBody(t, w)
			if body["error"] != tc.message {
				t.Errorf("expected message %q, got %v", tc.message, body["error"])
			}
			if _, ok := body["success"]; ok {
				t.Error("error responses must not carry success")
			}
			if len(h.logs.entries) != 1 || h.logs.entries[0].Status != tc.expected {
				t.Errorf("expected one log entry with %d, got %+v", tc.expected, h.logs.entries)
			}
		})
	}
}

func TestDispatcher_Panic(t *testing.T) {
	h := setup(t, nil)
	handler := h.dispatcher.Handle([]string{"GET"}, func(w *Response, r *http.Request) error {
		panic("boom")
	})

	w := serve(handler, testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

	testutil.AssertStatus(t, w, http.StatusInternalServerError)
	if len(h.logs.entries) != 1 {
		t.Errorf("expected one log entry, got %d", len(h.logs.entries))
	}
}

func TestDispatcher_AbortHandlerPropagates(t *testing.T) {
	h := setup(t, nil)
	handler := h.dispatcher.Handle([]string{"GET"}, func(w *Response, r *http.Request) error {
		panic(http.ErrAbortHandler)
	})

	defer func() {
		if p := recover(); p != http.ErrAbortHandler {
			t.Errorf("expected http.ErrAbortHandler to propagate, got %v", p)
		}
	}()
	serve(handler, testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))
	t.Error("expected serve to panic")
}

func TestDispatcher_SuccessEnvelopeAndLog(t *testing.T) {
	h := setup(t, nil)
	var seenKey string
	handler := h.dispatcher.Handle([]string{"POST"}, func(w *Response, r *http.Request) error {
		seenKey = Key(r.Context())
		w.Send(http.StatusOK, models.CreateElectionResponse{ElectionID: "abc"})
		w.Send(http.StatusTeapot, nil) // ignored
		return nil
	})

	req := testutil.MakeRequest("POST", "/api/v1/elections", nil, testutil.KeyHeader(h.key))
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	w := serve(handler, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != `{"success":true,"election_id":"abc"}` {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
	if seenKey != h.key {
		t.Errorf("handler saw key %q", seenKey)
	}

	if len(h.logs.entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(h.logs.entries))
	}
	e := h.logs.entries[0]
	if e.Route != "/v1/elections" || e.Method != "POST" || e.Status != 200 {
		t.Errorf("unexpected log entry %+v", e)
	}
	if e.IP == nil || *e.IP != "1.2.3.4" || e.Key == nil || *e.Key != h.key {
		t.Errorf("unexpected log subjects %+v", e)
	}
}

func TestDispatcher_Preflight(t *testing.T) {
	h := setup(t, nil)
	handler := h.dispatcher.Handle([]string{"GET"}, okHandler)

	req := testutil.MakeRequest("OPTIONS", "/api/v1/meta", nil, map[string]string{"Origin": "http://localhost:3000"})
	w := serve(handler, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("expected CORS headers on preflight")
	}
	if len(h.logs.entries) != 1 || h.logs.entries[0].Key != nil {
		t.Errorf("expected one anonymous log entry, got %+v", h.logs.entries)
	}
}

func TestDispatcher_LogFailureDoesNotChangeResponse(t *testing.T) {
	h := setup(t, nil)
	h.logs.err = errors.New("disk full")

	w := serve(h.dispatcher.Handle([]string{"GET"}, okHandler),
		testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key)))

	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestDispatcher_HonoursRequestID(t *testing.T) {
	h := setup(t, nil)
	req := testutil.MakeRequest("GET", "/api/v1/meta", nil, testutil.KeyHeader(h.key))
	req.Header.Set("X-Request-ID", "abc123")

	w := serve(h.dispatcher.Handle([]string{"GET"}, okHandler), req)

	if w.Header().Get("X-Request-ID") != "abc123" {
		t.Errorf("expected request id to be echoed, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestDispatcher_HandleMethods(t *testing.T) {
	h := setup(t, nil)
	emptyHandler := func(w *Response, r *http.Request) error {
		w.Send(http.StatusOK, nil)
		return nil
	}
	handler := h.dispatcher.HandleMethods(Methods{
		"get":             okHandler,
		http.MethodDelete: emptyHandler,
	})

	w := serve(handler, testutil.MakeRequest(http.MethodGet, "/api/v1/election/x", nil, testutil.KeyHeader(h.key)))
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := decodeBody(t, w); body["election_id"] != "abc" {
		t.Errorf("expected the GET handler, got %v", body)
	}

	w = serve(handler, testutil.MakeRequest(http.MethodDelete, "/api/v1/election/x", nil, testutil.KeyHeader(h.key)))
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := decodeBody(t, w); len(body) != 1 {
		t.Errorf("expected the DELETE handler, got %v", body)
	}

	w = serve(handler, testutil.MakeRequest(http.MethodPut, "/api/v1/election/x", nil, testutil.KeyHeader(h.key)))
	testutil.AssertStatus(t, w, http.StatusMethodNotAllowed)
	if allow := w.Header().Get("Allow"); allow != "DELETE, GET" {
		t.Errorf("expected Allow: DELETE, GET, got %q", allow)
	}
}

func TestRoute(t *testing.T) {
	testCases := map[string]string{
		"/api/v1/elections": "/v1/elections",
		"/api":              "/",
		"/api/":             "/",
		"/apiary":           "/apiary",
		"/health":           "/health",
	}
	for path, want := range testCases {
		if got := Route(path); got != want {
			t.Errorf("Route(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWithSuccess(t *testing.T) {
	testCases := []struct {
		name string
		body any
		want string
	}{
		{"nil", nil, `{"success":true}`},
		{"empty object", map[string]any{}, `{"success":true}`},
		{"object", models.VotesResponse{Votes: []models.VoterRanking{}}, `{"success":true,"votes":[]}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := withSuccess(tc.body)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tc.want {
				t.Errorf("withSuccess() = %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := withSuccess([]string{"a"}); err == nil {
		t.Error("expected error for non-object body")
	}
}
