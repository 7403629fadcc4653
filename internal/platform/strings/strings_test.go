package strings

import (
	"testing"

	"stopsearch/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	if got := IfEmpty([]int{1, 2}, []int{9}); len(got) != 2 {
		t.Fatalf("non empty input replaced: %v", got)
	}
	if got := IfEmpty(nil, []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("default not used: %v", got)
	}
}

func TestMustString(t *testing.T) {
	if MustString("etl", "name") != "etl" {
		t.Fatal("value not returned")
	}
	testkit.MustPanic(t, func() { MustString("  ", "name") })
}

func TestMustPrefix(t *testing.T) {
	cases := map[string]string{"v1": "/v1", "/stats/": "/stats", " /a/b ": "/a/b"}
	for in, want := range cases {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q want %q", in, got, want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix("/") })
}
