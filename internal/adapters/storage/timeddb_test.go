package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"meetdesk/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQueryLabel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT id, name FROM participant WHERE id = ?", "SELECT participant"},
		{"select count(*) from roster_entry", "SELECT roster_entry"},
		{"INSERT INTO event (id) VALUES (?)", "INSERT event"},
		{"UPDATE participation_request SET status = ?", "UPDATE participation_request"},
		{"DELETE FROM team WHERE event_id = ?", "DELETE team"},
		{"BEGIN", "BEGIN"},
		{"  ", "EMPTY"},
	}
	for _, tt := range tests {
		if got := queryLabel(tt.query); got != tt.want {
			t.Errorf("queryLabel(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestTimedDB_RecordsEveryCall(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id, val FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	count := 0
	for rows.Next() {
		count++
	}
	rows.Close()
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil || val != "hello" {
		t.Errorf("QueryRowContext = %q, %v", val, err)
	}

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	if collector.TotalRecorded() != 4 {
		t.Errorf("TotalRecorded = %d, want 4", collector.TotalRecorded())
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	labels := map[string]bool{}
	for _, q := range snap.SlowestQueries {
		labels[q.Path] = true
	}
	for _, want := range []string{"INSERT test", "SELECT test", "BEGIN"} {
		if !labels[want] {
			t.Errorf("missing label %q in %v", want, labels)
		}
	}
}

func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged and still timed.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector).WithThreshold(0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	if _, err := tdb.QueryContext(ctx, "SELECT * FROM nonexistent_table"); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "missing").Scan(&val); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if collector.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", collector.TotalRecorded())
	}
}

func TestTimedDB_CancelledContext(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
}

func TestTimedDB_RawDB(t *testing.T) {
	db := openTimedTestDB(t)
	if NewTimedDB(db, nil).RawDB() != db {
		t.Error("RawDB() should return the original *sql.DB")
	}
}

func TestSlowQueryThresholdFromEnv(t *testing.T) {
	t.Setenv("MEETDESK_SLOW_QUERY_MS", "250")
	if got := SlowQueryThresholdFromEnv(); got != 250*time.Millisecond {
		t.Errorf("threshold = %v, want 250ms", got)
	}
	t.Setenv("MEETDESK_SLOW_QUERY_MS", "nope")
	if got := SlowQueryThresholdFromEnv(); got != DefaultSlowQueryMs*time.Millisecond {
		t.Errorf("threshold = %v, want default", got)
	}
}

func TestTimedDB_ConcurrentMixedOps(t *testing.T) {
	db := openTimedTestDB(t)
	db.SetMaxOpenConns(4)
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				tdb.QueryRowContext(ctx, "SELECT 1").Scan(new(int))
			}
		}()
	}
	wg.Wait()
	if collector.TotalRecorded() != 100 {
		t.Errorf("TotalRecorded = %d, want 100", collector.TotalRecorded())
	}
}

func BenchmarkTimedDB_QueryRow(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	tdb := NewTimedDB(db, perf.NewCollector(perf.DefaultRingSize))
	ctx := context.Background()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		tdb.QueryRowContext(ctx, "SELECT 1").Scan(new(int))
	}
}
