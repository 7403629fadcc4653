// Package domain holds DTOs for the read API and its service contract
package domain

import "time"

// DefaultRadiusKm is used by Near when radius_km is omitted
const DefaultRadiusKm = 1.0

// ByMonthInput selects records that occurred in one calendar month
type ByMonthInput struct {
	Month string `query:"month" validate:"required,yearmonth" example:"2024-01"`
	Force string `query:"force" validate:"omitempty,force" example:"metropolitan"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=1000" example:"100"`
}

// LimitInput caps list endpoints keyed by a path value
type LimitInput struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=1000" example:"100"`
}

// NearInput is a rough bounding box query around a point
type NearInput struct {
	Lat      *float64 `query:"lat" validate:"required,min=-90,max=90" example:"51.5072"`
	Lon      *float64 `query:"lon" validate:"required,min=-180,max=180" example:"-0.1276"`
	RadiusKm float64  `query:"radius_km" validate:"omitempty,gt=0,max=50" example:"1.5"`
	Limit    int      `query:"limit" validate:"omitempty,min=1,max=1000" example:"100"`
}

// Stop is the wire shape of one stored record
type Stop struct {
	Force                         string    `json:"force"`
	Period                        string    `json:"period"`
	Type                          string    `json:"type"`
	Datetime                      time.Time `json:"datetime"`
	Gender                        *string   `json:"gender"`
	AgeRange                      *string   `json:"age_range"`
	SelfDefinedEthnicity          *string   `json:"self_defined_ethnicity"`
	OfficerDefinedEthnicity       *string   `json:"officer_defined_ethnicity"`
	Legislation                   string    `json:"legislation"`
	ObjectOfSearch                *string   `json:"object_of_search"`
	Outcome                       *string   `json:"outcome"`
	OutcomeLinkedToObject         *bool     `json:"outcome_linked_to_object_of_search"`
	RemovalOfMoreThanOuterClothes *bool     `json:"removal_of_more_than_outer_clothing"`
	Latitude                      *float64  `json:"latitude"`
	Longitude                     *float64  `json:"longitude"`
	StreetID                      *int64    `json:"street_id"`
	StreetName                    *string   `json:"street_name"`
}
