// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCreateSchema_Idempotent(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	if err := CreateSchema(ctx, conn); err != nil {
		t.Fatalf("first CreateSchema() error = %v", err)
	}

	_, err := conn.Exec(`INSERT INTO api_key (api_key, owner) VALUES ('k', 'owner')`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := CreateSchema(ctx, conn); err != nil {
		t.Fatalf("second CreateSchema() error = %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM api_key`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected data to survive re-initialisation, got %d rows", n)
	}

	for _, table := range Tables {
		var count int
		err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&count)
		if err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("expected exactly one %s table, got %d", table, count)
		}
	}
}
