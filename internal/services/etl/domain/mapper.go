package domain

import (
	stderrs "errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stopsearch/internal/core/normalize"
	perr "stopsearch/internal/platform/errors"
)

// ErrMapping matches every *MappingError via errors.Is
var ErrMapping = perr.New(perr.ErrorCodeMapping, "record mapping failed")

// MappingError describes why one raw record was rejected
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map %s: %s", e.Field, e.Reason)
}

// Unwrap exposes ErrMapping so perr.CodeOf reports ErrorCodeMapping
func (e *MappingError) Unwrap() error { return ErrMapping }

// IsMapping reports whether err came from MapRecord
func IsMapping(err error) bool { return stderrs.Is(err, ErrMapping) }

func missing(field string) error { return &MappingError{Field: field, Reason: "missing"} }

func mismatch(field, want string, got any) error {
	return &MappingError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}

// accepted timestamp layouts, zoned first
var zoned = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

var naive = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseInstant reads an ISO-8601 timestamp; one without a zone is taken as UTC
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, stderrs.New("empty timestamp")
	}
	var last error
	for _, l := range zoned {
		t, err := time.Parse(l, s)
		if err == nil {
			return t.UTC(), nil
		}
		last = err
	}
	for _, l := range naive {
		t, err := time.ParseInLocation(l, s, time.UTC)
		if err == nil {
			return t, nil
		}
		last = err
	}
	return time.Time{}, last
}

// MapRecord converts one upstream object into a Record.
// It is pure; Force and Period are left empty for Attribute
func MapRecord(raw RawRecord) (Record, error) {
	var r Record

	v, ok := raw["datetime"]
	if !ok || v == nil {
		return Record{}, missing("datetime")
	}
	s, ok := v.(string)
	if !ok {
		return Record{}, mismatch("datetime", "string", v)
	}
	at, err := ParseInstant(s)
	if err != nil {
		return Record{}, &MappingError{Field: "datetime", Reason: err.Error()}
	}
	r.OccurredAt = at

	typ, err := optString(raw, "type")
	if err != nil {
		return Record{}, err
	}
	r.SearchType = UnknownType
	if typ != nil {
		r.SearchType = *typ
	}

	leg, err := optString(raw, "legislation")
	if err != nil {
		return Record{}, err
	}
	if leg != nil {
		r.Legislation = *leg
	}

	for _, f := range []struct {
		key string
		dst **string
	}{
		{"gender", &r.Gender},
		{"age_range", &r.AgeRange},
		{"self_defined_ethnicity", &r.SelfDefinedEthnicity},
		{"officer_defined_ethnicity", &r.OfficerDefinedEthnicity},
		{"object_of_search", &r.ObjectOfSearch},
		{"outcome", &r.Outcome},
	} {
		if *f.dst, err = optString(raw, f.key); err != nil {
			return Record{}, err
		}
	}

	if r.OutcomeLinkedToObject, err = optBool(raw, "outcome_linked_to_object_of_search"); err != nil {
		return Record{}, err
	}
	if r.RemovalOfMoreThanOuterClothes, err = optBool(raw, "removal_of_more_than_outer_clothing"); err != nil {
		return Record{}, err
	}

	if err := mapLocation(raw, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func mapLocation(raw RawRecord, r *Record) error {
	v, ok := raw["location"]
	if !ok || v == nil {
		return nil
	}
	loc, ok := v.(map[string]any)
	if !ok {
		return mismatch("location", "object", v)
	}
	var err error
	if r.Latitude, err = optFloat(loc, "location.latitude", "latitude"); err != nil {
		return err
	}
	if r.Longitude, err = optFloat(loc, "location.longitude", "longitude"); err != nil {
		return err
	}

	sv, ok := loc["street"]
	if !ok || sv == nil {
		return nil
	}
	street, ok := sv.(map[string]any)
	if !ok {
		return mismatch("location.street", "object", sv)
	}
	if r.StreetID, err = optInt(street, "location.street.id", "id"); err != nil {
		return err
	}
	if r.StreetName, err = optString(street, "name"); err != nil {
		if me, ok := err.(*MappingError); ok {
			me.Field = "location.street.name"
		}
		return err
	}
	return nil
}

// optString returns nil for absent, null or blank values
func optString(m map[string]any, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, mismatch(key, "string", v)
	}
	return normalize.CleanPtr(&s), nil
}

func optBool(m map[string]any, key string) (*bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, mismatch(key, "bool", v)
	}
	return &b, nil
}

func optFloat(m map[string]any, field, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, &MappingError{Field: field, Reason: fmt.Sprintf("not a number: %q", x)}
		}
		f = p
	default:
		return nil, mismatch(field, "number", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &MappingError{Field: field, Reason: "not finite"}
	}
	return &f, nil
}

func optInt(m map[string]any, field, key string) (*int64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int64
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return nil, &MappingError{Field: field, Reason: fmt.Sprintf("not an integer: %v", x)}
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case string:
		p, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, &MappingError{Field: field, Reason: fmt.Sprintf("not an integer: %q", x)}
		}
		n = p
	default:
		return nil, mismatch(field, "integer", v)
	}
	return &n, nil
}
