package config

import (
	"testing"
	"time"

	perr "stopsearch/internal/platform/errors"
	kit "stopsearch/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	api := New().Prefix("CORE_").Prefix("POLICEAPI_")
	if got := api.Key("RPS"); got != "CORE_POLICEAPI_RPS" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  stopsearch ")
	if got := c.MustString("NAME"); got != "stopsearch" {
		t.Fatalf("MustString = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMayFallbacks(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_INT", " 7 ")
	t.Setenv("M_BADINT", "x")
	t.Setenv("M_BOOL", "true")
	t.Setenv("M_DUR", "150ms")
	t.Setenv("M_BADDUR", "soon")
	t.Setenv("M_F", "2.5")

	if c.MayString("MISSING", "def") != "def" {
		t.Fatalf("MayString default")
	}
	if c.MayInt("INT", 0) != 7 || c.MayInt("BADINT", 3) != 3 {
		t.Fatalf("MayInt mismatch")
	}
	if !c.MayBool("BOOL", false) {
		t.Fatalf("MayBool mismatch")
	}
	if c.MayDuration("DUR", time.Second) != 150*time.Millisecond || c.MayDuration("BADDUR", time.Minute) != time.Minute {
		t.Fatalf("MayDuration mismatch")
	}
	if c.MayFloat64("F", 0) != 2.5 {
		t.Fatalf("MayFloat64 mismatch")
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	if got := c.MayCSV("MISS", []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MayCSV default mismatch: %#v", got)
	}
	t.Setenv("CSV_VALS", " kent, essex , ,metropolitan ,, ")
	got := c.MayCSV("VALS", nil)
	want := []string{"kent", "essex", "metropolitan"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV = %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMayPort(t *testing.T) {
	c := New().Prefix("P_")
	if c.MayPort("PORT", 8080) != ":8080" {
		t.Fatalf("MayPort default")
	}
	t.Setenv("P_PORT", "70000")
	if c.MayPort("PORT", 8080) != ":8080" {
		t.Fatalf("out of range port should fall back")
	}
	t.Setenv("P_PORT", "9000")
	if c.MayPort("PORT", 8080) != ":9000" {
		t.Fatalf("MayPort value")
	}
}

func TestLoadApp_Defaults(t *testing.T) {
	app, err := LoadApp(New())
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if len(app.Forces) != 1 || app.Forces[0] != "metropolitan" {
		t.Fatalf("default forces = %#v", app.Forces)
	}
	if app.StoreDriver != DriverSQLite || app.SQLitePath != "stopsearch.db" {
		t.Fatalf("default store = %+v", app)
	}
}

func TestLoadApp_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "LOUD"}, "LOG_LEVEL"},
		{"driver", map[string]string{"STOPSEARCH_STORE_DRIVER": "mysql"}, "STOPSEARCH_STORE_DRIVER"},
		{"pg url", map[string]string{"STOPSEARCH_STORE_DRIVER": "postgres"}, "SERVICE_PGSQL_DBURL"},
		{"force id", map[string]string{"STOPSEARCH_FORCES": "kent,bad force"}, "STOPSEARCH_FORCES[1]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := LoadApp(New())
			if !perr.IsCode(err, perr.ErrorCodeConfig) {
				t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
			}
			if e, _ := perr.As(err); e.Field() != c.field {
				t.Fatalf("field = %q, want %q", e.Field(), c.field)
			}
		})
	}
}

func TestLoadApp_ForcesLowercased(t *testing.T) {
	t.Setenv("STOPSEARCH_FORCES", "Kent,Avon-and-Somerset")
	app, err := LoadApp(New())
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if app.Forces[0] != "kent" || app.Forces[1] != "avon-and-somerset" {
		t.Fatalf("forces = %#v", app.Forces)
	}
}
