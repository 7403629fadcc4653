package bind

import (
	"net/http/httptest"
	"net/url"
	"testing"

	perr "stopsearch/internal/platform/errors"
)

type stopsQuery struct {
	Month  string   `query:"month" validate:"required,yearmonth"`
	Force  string   `query:"force" validate:"omitempty,force"`
	Limit  int      `query:"limit" validate:"omitempty,min=1,max=1000"`
	Radius *float64 `query:"radius_km"`
	Strict bool     `query:"strict"`
	Hidden string
}

func TestQueryDecodesAndValidates(t *testing.T) {
	r := httptest.NewRequest("GET", "/?month=2024-01&force=kent&limit=5&radius_km=2.5&strict=true&Hidden=x", nil)
	q, err := Query[stopsQuery](r)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.Month != "2024-01" || q.Force != "kent" || q.Limit != 5 || !q.Strict {
		t.Fatalf("decoded %+v", q)
	}
	if q.Radius == nil || *q.Radius != 2.5 {
		t.Fatalf("radius = %v", q.Radius)
	}
	if q.Hidden != "" {
		t.Fatalf("untagged field must be ignored")
	}
}

func TestQueryAbsentPointerStaysNil(t *testing.T) {
	q, err := Query[stopsQuery](httptest.NewRequest("GET", "/?month=2024-01", nil))
	if err != nil || q.Radius != nil || q.Limit != 0 {
		t.Fatalf("q=%+v err=%v", q, err)
	}
}

func TestQueryErrors(t *testing.T) {
	cases := []struct {
		query string
		field string
	}{
		{"", "month"},
		{"month=2024-13", "month"},
		{"month=2024-01&limit=abc", "limit"},
		{"month=2024-01&limit=5000", "limit"},
		{"month=2024-01&radius_km=far", "radius_km"},
		{"month=2024-01&force=Kent!", "force"},
	}
	for _, tc := range cases {
		_, err := Query[stopsQuery](httptest.NewRequest("GET", "/?"+tc.query, nil))
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("%q: expected validation error, got %v", tc.query, err)
		}
		e, _ := perr.As(err)
		if e.Field() != tc.field {
			t.Fatalf("%q: field = %q want %q", tc.query, e.Field(), tc.field)
		}
	}
}

func TestValuesRejectsNonStruct(t *testing.T) {
	var n int
	if err := Values(url.Values{}, &n); err == nil {
		t.Fatal("expected error for non struct target")
	}
}
