// Package domain holds the stop-and-search record model, its mapping from
// upstream payloads and the ports the etl service depends on
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one decoded upstream JSON object
type RawRecord = map[string]any

// UnknownType is stored when upstream omits the search type
const UnknownType = "Unknown"

// Record is one normalized stop-and-search event.
// Values are built by MapRecord (or rehydrated by a repo) and never mutated afterwards
type Record struct {
	Force  string // originating force id, stamped by Attribute
	Period string // YYYY-MM the record was fetched for, stamped by Attribute

	SearchType string
	OccurredAt time.Time // always UTC

	Gender                  *string
	AgeRange                *string
	SelfDefinedEthnicity    *string
	OfficerDefinedEthnicity *string
	Legislation             string
	ObjectOfSearch          *string
	Outcome                 *string

	OutcomeLinkedToObject         *bool
	RemovalOfMoreThanOuterClothes *bool

	Latitude   *float64
	Longitude  *float64
	StreetID   *int64
	StreetName *string
}

// Attribute returns a copy of r stamped with the force and month it was fetched for
func (r Record) Attribute(force, period string) Record {
	r.Force = force
	r.Period = period
	return r
}

// Key is the natural identity of a stored event
type Key struct {
	Force       string
	OccurredAt  time.Time
	Latitude    *float64
	Longitude   *float64
	SearchType  string
	Legislation string
}

// Key returns the uniqueness key of r
func (r Record) Key() Key {
	return Key{
		Force:       r.Force,
		OccurredAt:  r.OccurredAt.UTC(),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		SearchType:  r.SearchType,
		Legislation: r.Legislation,
	}
}

// DedupKey is the hex SHA-256 of the key's canonical form.
// Absent coordinates hash as a distinct token so they still collide with each other
func (r Record) DedupKey() string { return r.Key().Hash() }

// Hash returns the canonical digest of k
func (k Key) Hash() string {
	const sep = "\x1f"
	var b strings.Builder
	b.WriteString(k.Force)
	b.WriteString(sep)
	b.WriteString(k.OccurredAt.UTC().Format(time.RFC3339Nano))
	b.WriteString(sep)
	b.WriteString(coord(k.Latitude))
	b.WriteString(sep)
	b.WriteString(coord(k.Longitude))
	b.WriteString(sep)
	b.WriteString(k.SearchType)
	b.WriteString(sep)
	b.WriteString(k.Legislation)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func coord(f *float64) string {
	if f == nil {
		return "null"
	}
	v := *f
	if v == 0 {
		v = 0 // -0 compares equal to 0 but formats as "-0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Drop is one raw record that failed mapping
type Drop struct {
	Index  int
	Reason string
}

// BatchOutcome is the result of one force+month etl run
type BatchOutcome struct {
	Force        string
	Month        string
	Fetched      int
	Mapped       int
	Dropped      []Drop
	Inserted     int
	Deduplicated int // Mapped - Inserted
	Elapsed      time.Duration
}

// Summary is the aggregate view served by the read API
type Summary struct {
	TotalRecords int            `json:"total_records"`
	SearchTypes  map[string]int `json:"search_types"`
	Outcomes     map[string]int `json:"outcomes"`
}

// Box is an inclusive latitude/longitude bounding box
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}
