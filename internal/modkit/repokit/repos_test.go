package repokit

import (
	"context"
	"errors"
	"testing"

	"stopsearch/internal/platform/store"
	"stopsearch/internal/platform/testkit"
)

type fakeQ struct{}

func (*fakeQ) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (*fakeQ) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (*fakeQ) QueryRow(context.Context, string, ...any) store.Row             { return nil }

type fakeTx struct {
	fakeQ
	calls int
}

func (f *fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	f.calls++
	return fn(&f.fakeQ)
}

func TestWithTx_Delegates(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), tx, func(q Queryer) error { return boom })
	if !errors.Is(err, boom) || tx.calls != 1 {
		t.Fatalf("WithTx err=%v calls=%d", err, tx.calls)
	}
}

func TestDialect_For(t *testing.T) {
	t.Parallel()
	d := Dialect[string]{
		Postgres: BindFunc[string](func(Queryer) string { return "pg" }),
		SQLite:   BindFunc[string](func(Queryer) string { return "sqlite" }),
	}
	for driver, want := range map[string]string{store.DriverPostgres: "pg", store.DriverSQLite: "sqlite"} {
		b, err := d.For(driver)
		if err != nil {
			t.Fatalf("For(%q): %v", driver, err)
		}
		if got := b.Bind(&fakeQ{}); got != want {
			t.Fatalf("For(%q) bound %q", driver, got)
		}
	}
	if _, err := d.For("oracle"); err == nil {
		t.Fatalf("unknown driver should error")
	}
	if _, err := (Dialect[string]{}).For(store.DriverSQLite); err == nil {
		t.Fatalf("missing binder should error")
	}
}

func TestMustBind(t *testing.T) {
	t.Parallel()
	b := BindFunc[int](func(Queryer) int { return 7 })
	if got := MustBind[int](b, &fakeQ{}); got != 7 {
		t.Fatalf("MustBind = %d", got)
	}
	testkit.MustPanic(t, func() { _ = MustBind[int](b, nil) })
}
