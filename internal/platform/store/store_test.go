package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTemp(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "store.db"), LogSQL: true},
	}, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestOpen_EmptyDriverIsNoop(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil || s == nil || s.DB != nil {
		t.Fatalf("empty driver: s=%v err=%v", s, err)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard on empty store: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpen_PGBadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres, PG: PGConfig{URL: "://bad"}})
	if err == nil {
		t.Fatalf("expected error for bad PG URL")
	}
}

func TestSQLiteAdapter_ExecQueryTx(t *testing.T) {
	var buf bytes.Buffer
	s := openTemp(t, WithLogger(zerolog.New(&buf)))
	ctx := context.Background()

	if s.Driver != DriverSQLite {
		t.Fatalf("driver = %q", s.Driver)
	}
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if _, err := ExecAll(ctx, s.DB, `CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT UNIQUE)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := s.DB.Tx(ctx, func(q RowQuerier) error {
		for _, n := range []string{"a", "b", "a"} {
			if _, err := q.Exec(ctx, `INSERT INTO t (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	n, err := Scalar[int](ctx, s.DB, `SELECT COUNT(*) FROM t`)
	if err != nil || n != 2 {
		t.Fatalf("count = %d (%v)", n, err)
	}

	names, err := Many(ctx, s.DB, func(r Row) (string, error) {
		var v string
		return v, r.Scan(&v)
	}, `SELECT name FROM t ORDER BY name`)
	if err != nil || len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v (%v)", names, err)
	}

	if !bytes.Contains(buf.Bytes(), []byte(`"sql query"`)) {
		t.Fatalf("expected traced statements, got %s", buf.String())
	}
}

func TestSQLiteAdapter_TxRollsBack(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if _, err := ExecAll(ctx, s.DB, `CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := s.DB.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO t (id) VALUES (1)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	n, _ := Scalar[int](ctx, s.DB, `SELECT COUNT(*) FROM t`)
	if n != 0 {
		t.Fatalf("rollback left %d rows", n)
	}
}

func TestExecAll_StopsOnError(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := ExecAll(ctx, s.DB, `CREATE TABLE a (x INT)`, `NOT SQL`, `CREATE TABLE b (x INT)`)
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Scalar[int](ctx, s.DB, `SELECT COUNT(*) FROM b`); err == nil {
		t.Fatalf("statement after failure should not run")
	}
}

func TestCompact(t *testing.T) {
	cases := map[string]string{
		"select 1":                        "select 1",
		"SELECT\t*\nFROM\r\ttable  WHERE": "SELECT * FROM table WHERE",
		"":                                "",
	}
	for in, want := range cases {
		if got := compact(in); got != want {
			t.Fatalf("compact(%q) = %q, want %q", in, got, want)
		}
	}
}
