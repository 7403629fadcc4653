package domain

import "context"

// MonthRunner runs one force+month and returns rows inserted
type MonthRunner interface {
	Run(ctx context.Context, force, month string) (int, error)
}

// MonthLister discovers the months upstream holds for a force
type MonthLister interface {
	ListAvailableMonths(ctx context.Context, force string) ([]string, error)
}

// ForceBackfiller is the per-force operation the multi-force runner drives
type ForceBackfiller interface {
	BackfillForce(ctx context.Context, force string) (Result, error)
}

// RunnerPort is what cmd and the scheduler call
type RunnerPort interface {
	ForceBackfiller
	RunBackfill(ctx context.Context, forces []string) MultiForceSummary
	RunOnce(ctx context.Context) MultiForceSummary
}
