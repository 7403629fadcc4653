// Package domain holds backfill results and the ports the orchestrator depends on
package domain

import "strings"

// Order controls month dispatch order
type Order string

// Order values
const (
	OrderUpstream Order = "upstream" // as discovery returned them
	OrderAsc      Order = "asc"
	OrderDesc     Order = "desc"
)

// ParseOrder maps free text to an Order; unknown values report ok=false
func ParseOrder(s string) (Order, bool) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderUpstream:
		return OrderUpstream, true
	case OrderAsc:
		return OrderAsc, true
	case OrderDesc:
		return OrderDesc, true
	}
	return OrderUpstream, false
}

// Result summarizes one force's backfill
type Result struct {
	Force           string   `json:"force"`
	TotalRecords    int      `json:"total_records"`
	MonthsProcessed int      `json:"months_processed"`
	MonthsFailed    int      `json:"months_failed"`
	MonthsSkipped   int      `json:"months_skipped"` // filtered by Since
	FailedMonths    []string `json:"failed_months,omitempty"`

	// DiscoveryErr is set when months could not be listed; the counts are then zero
	DiscoveryErr error `json:"-"`
}

// MultiForceSummary rolls up Results across forces
type MultiForceSummary struct {
	TotalRecords         int      `json:"total_records"`
	TotalMonthsProcessed int      `json:"total_months_processed"`
	TotalMonthsFailed    int      `json:"total_months_failed"`
	ForcesCompleted      int      `json:"forces_completed"`
	ForcesFailed         int      `json:"forces_failed"`
	FailedForces         []string `json:"failed_forces,omitempty"`
	Results              []Result `json:"results,omitempty"`
}

// Add folds r into s; failed marks the force as failed
func (s *MultiForceSummary) Add(r Result, failed bool) {
	s.TotalRecords += r.TotalRecords
	s.TotalMonthsProcessed += r.MonthsProcessed
	s.TotalMonthsFailed += r.MonthsFailed
	if failed {
		s.ForcesFailed++
		s.FailedForces = append(s.FailedForces, r.Force)
	} else {
		s.ForcesCompleted++
	}
	s.Results = append(s.Results, r)
}

// Partial reports whether anything failed
func (s MultiForceSummary) Partial() bool { return s.ForcesFailed > 0 || s.TotalMonthsFailed > 0 }
