package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"stopsearch/internal/platform/testkit"
	bfdomain "stopsearch/internal/services/backfill/domain"
	backfillmod "stopsearch/internal/services/backfill/module"
	"stopsearch/internal/services/scheduler"
)

func TestCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"backfill", "run-once", "schedule", "serve", "migrate"} {
		sub, _, err := root.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("missing command %s: %v", name, err)
		}
	}
	bf, _, _ := root.Find([]string{"backfill"})
	for _, fl := range []string{"force", "since", "order", "concurrent", "workers"} {
		if bf.Flags().Lookup(fl) == nil {
			t.Fatalf("backfill flag %s missing", fl)
		}
	}
	serve, _, _ := root.Find([]string{"serve"})
	if serve.Flags().Lookup("no-schedule") == nil || serve.Flags().Lookup("at") == nil {
		t.Fatal("serve flags missing")
	}
}

func TestExitCodes(t *testing.T) {
	cases := []struct {
		name string
		sum  bfdomain.MultiForceSummary
		want int
	}{
		{"clean", bfdomain.MultiForceSummary{ForcesCompleted: 2}, ExitOK},
		{"month failed", bfdomain.MultiForceSummary{ForcesCompleted: 1, TotalMonthsFailed: 1}, ExitPartial},
		{"one force failed", bfdomain.MultiForceSummary{ForcesCompleted: 1, ForcesFailed: 1}, ExitPartial},
		{"all failed", bfdomain.MultiForceSummary{ForcesFailed: 2}, ExitFailure},
		{"nothing to do", bfdomain.MultiForceSummary{}, ExitOK},
	}
	for _, tc := range cases {
		if got := exitCode(summaryErr(tc.sum)); got != tc.want {
			t.Fatalf("%s: exit %d want %d", tc.name, got, tc.want)
		}
	}
	if exitCode(errors.New("plain")) != ExitFailure {
		t.Fatal("plain errors exit 1")
	}
	wrapped := failure("open store", errors.New("disk full"))
	if !strings.Contains(wrapped.Error(), "disk full") || exitCode(wrapped) != ExitFailure {
		t.Fatalf("failure() = %v", wrapped)
	}
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	cmd := newBackfillCommand()
	if err := cmd.ParseFlags([]string{"--since", "2023-06", "--workers", "8"}); err != nil {
		t.Fatal(err)
	}
	opts := backfillmod.Options{Order: "desc", Workers: 4, Concurrent: true}
	f := &backfillFlags{since: "2023-06", workers: 8}
	f.apply(cmd.Flags(), &opts)
	if opts.Since != "2023-06" || opts.Workers != 8 || opts.Order != "desc" || !opts.Concurrent {
		t.Fatalf("opts = %+v", opts)
	}

	sc := newScheduleCommand()
	if err := sc.ParseFlags([]string{"--tz", "UTC"}); err != nil {
		t.Fatal(err)
	}
	got := (&scheduleFlags{at: "02:00", tz: "UTC"}).options(sc, scheduler.Options{At: "04:30", TZ: "Europe/London"})
	if got.At != "04:30" || got.TZ != "UTC" {
		t.Fatalf("schedule options = %+v", got)
	}
}

func fakePoliceAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/stops-force" && !r.URL.Query().Has("date"):
			_, _ = w.Write([]byte(`[{"date":"2024-02","stop-and-search":["kent"]},{"date":"2024-01","stop-and-search":["kent","essex"]}]`))
		case r.URL.Path == "/stops-force" && r.URL.Query().Get("date") == "2024-02":
			_, _ = w.Write([]byte(`[{"type":"Person search","datetime":"2024-02-03T10:00:00+00:00","legislation":null,
				"outcome":"Arrest","location":{"latitude":"51.27","longitude":"1.08","street":{"id":1,"name":"On or near High Street"}}},
				{"type":"Person search"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBackfillEndToEnd(t *testing.T) {
	srv := fakePoliceAPI(t)
	t.Setenv("STOPSEARCH_STORE_DRIVER", "sqlite")
	t.Setenv("STOPSEARCH_SQLITE_PATH", filepath.Join(t.TempDir(), "e2e.db"))
	t.Setenv("CORE_POLICEAPI_BASE_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	out, err := run(t, "backfill", "--force", "kent")
	if exitCode(err) != ExitPartial {
		t.Fatalf("first backfill exit %d (%v)", exitCode(err), err)
	}
	testkit.MustContain(t, out, `"total_records": 1`)
	testkit.MustContain(t, out, `"failed_months": [`)
	testkit.MustContain(t, out, `"2024-01"`)

	out, err = run(t, "backfill", "--force", "kent", "--since", "2024-02", "--order", "asc")
	if err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	testkit.MustContain(t, out, `"total_records": 0`)
	testkit.MustContain(t, out, `"months_skipped": 1`)
}

func TestBadConfigExitsOne(t *testing.T) {
	t.Setenv("STOPSEARCH_STORE_DRIVER", "oracle")
	_, err := run(t, "migrate")
	if exitCode(err) != ExitFailure || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("err = %v", err)
	}

	t.Setenv("STOPSEARCH_STORE_DRIVER", "sqlite")
	t.Setenv("STOPSEARCH_SQLITE_PATH", filepath.Join(t.TempDir(), "cfg.db"))
	_, err = run(t, "backfill", "--order", "sideways")
	if exitCode(err) != ExitFailure || !strings.Contains(err.Error(), "invalid backfill options") {
		t.Fatalf("err = %v", err)
	}
}
