// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/ranked-elections/auth"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/db"
)

// TestDBURL is the connection string for the test database
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is its own database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration. Contrived errors are
// off so that tests only see them when they ask for them.
func GetTestConfig() cliparse.Config {
	cfg := cliparse.Defaults()
	cfg.DatabaseURL = TestDBURL
	cfg.RequestsPerContrivedError = 0
	cfg.MaxOptionsPerElection = 5
	cfg.MaxRankingsPerElection = 5
	return cfg
}

// CreateTestKey registers a fresh API key and returns it
func CreateTestKey(t *testing.T, conn *sql.DB, owner string) string {
	t.Helper()

	key, err := auth.NewAPIKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO api_key (api_key, owner)
		VALUES ($1, $2)
	`, key, owner)
	if err != nil {
		t.Fatalf("Failed to create test key: %v", err)
	}

	return key
}

// CreateTestElection inserts an election owned by the given key and returns its ID.
// The election opened an hour ago and closes in an hour.
func CreateTestElection(t *testing.T, conn *sql.DB, owner string, options []string) string {
	t.Helper()

	if options == nil {
		options = []string{}
	}
	raw, _ := json.Marshal(options)
	now := time.Now().UnixMilli()
	id := auth.NewElectionID()

	_, err := conn.Exec(`
		INSERT INTO election (id, owner, title, description, options, created, opens, closes, deleted)
		VALUES ($1, $2, 'Test Election', 'A test election', $3, $4, $5, $6, FALSE)
	`, id, owner, string(raw), now-2*time.Hour.Milliseconds(), now-time.Hour.Milliseconds(), now+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return id
}

// LogTestRequests writes n request log rows for ip/key at timeMs. Empty
// strings are stored as NULL.
func LogTestRequests(t *testing.T, conn *sql.DB, n int, ip, key string, timeMs int64) {
	t.Helper()

	var ipArg, keyArg any
	if ip != "" {
		ipArg = ip
	}
	if key != "" {
		keyArg = key
	}
	for i := 0; i < n; i++ {
		_, err := conn.Exec(`
			INSERT INTO request_log (ip, api_key, route, method, status, time_ms)
			VALUES ($1, $2, '/v1/elections', 'GET', 200, $3)
		`, ipArg, keyArg, timeMs)
		if err != nil {
			t.Fatalf("Failed to create test request log: %v", err)
		}
	}
}

// CountRows returns the number of rows in table
func CountRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// KeyHeader is shorthand for the headers map MakeRequest takes
func KeyHeader(key string) map[string]string {
	return map[string]string{auth.HeaderName: key}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
