// Package service contains read API workflows over stored records
package service

import (
	"context"
	"math"
	"strings"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/services/api/stops/domain"
	etl "stopsearch/internal/services/etl/domain"
)

// kmPerDegree is the length of one degree of latitude
const kmPerDegree = 111.0

// Svc implements domain.ServicePort
type Svc struct {
	Repo etl.QueryRepo
}

var _ domain.ServicePort = (*Svc)(nil)

// New constructs a read service
func New(repo etl.QueryRepo) *Svc {
	if repo == nil {
		panic("stops.Service requires a non nil QueryRepo")
	}
	return &Svc{Repo: repo}
}

// ByMonth lists records that occurred in in.Month, optionally for one force
func (s *Svc) ByMonth(ctx context.Context, in domain.ByMonthInput) ([]domain.Stop, error) {
	rs, err := s.Repo.ListByMonth(ctx, in.Month, in.Force, in.Limit)
	return toStops(rs), err
}

// ByOutcome lists records with the exact outcome text
func (s *Svc) ByOutcome(ctx context.Context, outcome string, in domain.LimitInput) ([]domain.Stop, error) {
	if strings.TrimSpace(outcome) == "" {
		return nil, perr.WithField(perr.InvalidArgf("outcome is required"), "outcome")
	}
	rs, err := s.Repo.ListByOutcome(ctx, outcome, in.Limit)
	return toStops(rs), err
}

// ByType lists records with the exact search type
func (s *Svc) ByType(ctx context.Context, searchType string, in domain.LimitInput) ([]domain.Stop, error) {
	if strings.TrimSpace(searchType) == "" {
		return nil, perr.WithField(perr.InvalidArgf("type is required"), "type")
	}
	rs, err := s.Repo.ListByType(ctx, searchType, in.Limit)
	return toStops(rs), err
}

// Near lists records inside a bounding box of radius_km around lat/lon
func (s *Svc) Near(ctx context.Context, in domain.NearInput) ([]domain.Stop, error) {
	if in.Lat == nil || in.Lon == nil {
		return nil, perr.InvalidArgf("lat and lon are required")
	}
	radius := in.RadiusKm
	if radius <= 0 {
		radius = domain.DefaultRadiusKm
	}
	rs, err := s.Repo.ListWithin(ctx, BoxAround(*in.Lat, *in.Lon, radius), in.Limit)
	return toStops(rs), err
}

// Summary returns total, by type and by non-null outcome counts
func (s *Svc) Summary(ctx context.Context) (etl.Summary, error) {
	return s.Repo.Summary(ctx)
}

// BoxAround approximates a radiusKm circle with a lat/lon box.
// Near the poles the longitude span is left open
func BoxAround(lat, lon, radiusKm float64) etl.Box {
	latDelta := radiusKm / kmPerDegree
	box := etl.Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: -180,
		MaxLon: 180,
	}
	if c := math.Cos(lat * math.Pi / 180); c > 1e-9 {
		lonDelta := radiusKm / (kmPerDegree * c)
		box.MinLon = lon - lonDelta
		box.MaxLon = lon + lonDelta
	}
	return box
}

func toStops(rs []etl.Record) []domain.Stop {
	out := make([]domain.Stop, 0, len(rs))
	for _, r := range rs {
		out = append(out, domain.Stop{
			Force:                         r.Force,
			Period:                        r.Period,
			Type:                          r.SearchType,
			Datetime:                      r.OccurredAt,
			Gender:                        r.Gender,
			AgeRange:                      r.AgeRange,
			SelfDefinedEthnicity:          r.SelfDefinedEthnicity,
			OfficerDefinedEthnicity:       r.OfficerDefinedEthnicity,
			Legislation:                   r.Legislation,
			ObjectOfSearch:                r.ObjectOfSearch,
			Outcome:                       r.Outcome,
			OutcomeLinkedToObject:         r.OutcomeLinkedToObject,
			RemovalOfMoreThanOuterClothes: r.RemovalOfMoreThanOuterClothes,
			Latitude:                      r.Latitude,
			Longitude:                     r.Longitude,
			StreetID:                      r.StreetID,
			StreetName:                    r.StreetName,
		})
	}
	return out
}
