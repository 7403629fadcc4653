package domain

import (
	"math"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestDedupKeyStable(t *testing.T) {
	base := Record{
		SearchType: "Person search",
		OccurredAt: time.Date(2023, 1, 15, 14, 30, 0, 0, time.UTC),
		Latitude:   ptr(51.5),
		Longitude:  ptr(-0.12),
	}.Attribute("metropolitan", "2023-01")

	same := base
	same.Gender = ptr("Female")
	same.Period = "2023-02"
	if base.DedupKey() != same.DedupKey() {
		t.Fatal("non-key fields must not change the dedup key")
	}

	offset := base
	offset.OccurredAt = base.OccurredAt.In(time.FixedZone("BST", 3600))
	if base.DedupKey() != offset.DedupKey() {
		t.Fatal("same instant in another zone must share the key")
	}

	for name, mut := range map[string]func(r *Record){
		"force":       func(r *Record) { r.Force = "kent" },
		"instant":     func(r *Record) { r.OccurredAt = r.OccurredAt.Add(time.Second) },
		"latitude":    func(r *Record) { r.Latitude = nil },
		"longitude":   func(r *Record) { r.Longitude = ptr(0.0) },
		"type":        func(r *Record) { r.SearchType = UnknownType },
		"legislation": func(r *Record) { r.Legislation = "PACE" },
	} {
		r := base
		mut(&r)
		if r.DedupKey() == base.DedupKey() {
			t.Fatalf("%s change kept the dedup key", name)
		}
	}
	if len(base.DedupKey()) != 64 {
		t.Fatalf("key len = %d", len(base.DedupKey()))
	}
}

func TestDedupKeyNullCoordsCollide(t *testing.T) {
	a := Record{SearchType: "Vehicle search", OccurredAt: time.Unix(1700000000, 0).UTC(), Force: "kent"}
	b := a
	if a.DedupKey() != b.DedupKey() {
		t.Fatal("records without coordinates must collide")
	}
}

func TestAttributeReturnsCopy(t *testing.T) {
	r := Record{SearchType: "x"}
	s := r.Attribute("kent", "2023-05")
	if r.Force != "" || s.Force != "kent" || s.Period != "2023-05" {
		t.Fatalf("r=%+v s=%+v", r, s)
	}
}

func TestDedupKeyNegativeZeroEqualsZero(t *testing.T) {
	at := time.Date(2023, 1, 15, 14, 30, 0, 0, time.UTC)
	pos := Record{SearchType: "Person search", OccurredAt: at, Latitude: ptr(51.5), Longitude: ptr(0.0)}.Attribute("kent", "2023-01")
	neg := pos
	neg.Longitude = ptr(math.Copysign(0, -1))
	if !math.Signbit(*neg.Longitude) {
		t.Fatal("precondition: longitude should be -0")
	}
	if pos.DedupKey() != neg.DedupKey() {
		t.Fatal("-0 and 0 should share a dedup key")
	}
}
