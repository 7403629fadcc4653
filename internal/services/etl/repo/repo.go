// Package repo stores stop and search records in Postgres or SQLite
package repo

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"

	"stopsearch/internal/modkit/repokit"
	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/store"
	tim "stopsearch/internal/platform/time"
	"stopsearch/internal/services/etl/domain"
)

var (
	//go:embed schema_pg.sql
	schemaPG string

	//go:embed schema_sqlite.sql
	schemaSQLite string
)

// sqliteTime is fixed width so text order matches time order
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// DefaultLimit applies when a read query passes limit <= 0
const DefaultLimit = 100

// dialect carries the per driver differences
type dialect struct {
	name   string
	schema string
	rebind func(string) string
	ts     func(time.Time) any
}

var (
	pgDialect = dialect{
		name:   store.DriverPostgres,
		schema: schemaPG,
		rebind: func(s string) string { return s },
		ts:     func(t time.Time) any { return t.UTC() },
	}
	sqliteDialect = dialect{
		name:   store.DriverSQLite,
		schema: schemaSQLite,
		rebind: func(s string) string { return dollar.ReplaceAllString(s, "?$1") },
		ts:     func(t time.Time) any { return t.UTC().Format(sqliteTime) },
	}
)

// dollar matches $N placeholders; SQLite takes the same positions as ?N
var dollar = regexp.MustCompile(`\$(\d+)`)

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG struct{}

	// SQLite is a SQLite binder for domain.StorageRepo
	SQLite struct{}

	queries struct {
		q repokit.Queryer
		d dialect
	}
)

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// NewSQLite returns a SQLite binder for domain.StorageRepo
func NewSQLite() repokit.Binder[domain.StorageRepo] { return SQLite{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q, d: pgDialect} }

// Bind implements repokit.Binder
func (SQLite) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q, d: sqliteDialect} }

// Storage pairs both binders for repokit.Dialect.For
var Storage = repokit.Dialect[domain.StorageRepo]{Postgres: PG{}, SQLite: SQLite{}}

// Query pairs the read side binders
var Query = repokit.Dialect[domain.QueryRepo]{
	Postgres: repokit.BindFunc[domain.QueryRepo](func(q repokit.Queryer) domain.QueryRepo { return &queries{q: q, d: pgDialect} }),
	SQLite:   repokit.BindFunc[domain.QueryRepo](func(q repokit.Queryer) domain.QueryRepo { return &queries{q: q, d: sqliteDialect} }),
}

// Migrate creates the table and indexes for driver; it is idempotent
func Migrate(ctx context.Context, db repokit.TxRunner, driver string) error {
	d, err := dialectFor(driver)
	if err != nil {
		return err
	}
	return repokit.WithTx(ctx, db, func(q repokit.Queryer) error {
		if _, err := store.ExecAll(ctx, q, statements(d.schema)...); err != nil {
			return perr.Storage(err, "migrate stop_search_records")
		}
		return nil
	})
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case store.DriverPostgres:
		return pgDialect, nil
	case store.DriverSQLite:
		return sqliteDialect, nil
	}
	return dialect{}, perr.Configf("unknown store driver %q", driver)
}

func statements(schema string) []string {
	var out []string
	for s := range strings.SplitSeq(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

const columns = `force, period, search_type, occurred_at, gender, age_range,
	self_defined_ethnicity, officer_defined_ethnicity, legislation, object_of_search, outcome,
	outcome_linked_to_object_of_search, removal_of_more_than_outer_clothing,
	latitude, longitude, street_id, street_name`

const insertSQL = `
	INSERT INTO stop_search_records (` + columns + `, dedup_key)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (dedup_key) DO NOTHING`

const selectSQL = `SELECT ` + columns + ` FROM stop_search_records`

func (r *queries) insert(ctx context.Context, rec domain.Record) (bool, error) {
	tag, err := r.q.Exec(ctx, r.d.rebind(insertSQL),
		rec.Force, rec.Period, rec.SearchType, r.d.ts(rec.OccurredAt),
		rec.Gender, rec.AgeRange, rec.SelfDefinedEthnicity, rec.OfficerDefinedEthnicity,
		rec.Legislation, rec.ObjectOfSearch, rec.Outcome,
		rec.OutcomeLinkedToObject, rec.RemovalOfMoreThanOuterClothes,
		rec.Latitude, rec.Longitude, rec.StreetID, rec.StreetName,
		rec.DedupKey(),
	)
	if err != nil {
		return false, perr.Storage(err, fmt.Sprintf("insert stop record %s/%s", rec.Force, rec.Period))
	}
	return tag.RowsAffected() > 0, nil
}

// SaveBatch inserts rs one row at a time on the bound Queryer; conflicts are skipped
func (r *queries) SaveBatch(ctx context.Context, rs []domain.Record) (int, error) {
	inserted := 0
	for _, rec := range rs {
		ok, err := r.insert(ctx, rec)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// Save inserts one record and reports whether it was new
func (r *queries) Save(ctx context.Context, rec domain.Record) (bool, error) {
	return r.insert(ctx, rec)
}

// FindByForceAndMonth returns records fetched for force and month ordered by time
func (r *queries) FindByForceAndMonth(ctx context.Context, force, month string) ([]domain.Record, error) {
	return r.list(ctx, "find by force and month",
		selectSQL+` WHERE force = $1 AND period = $2 ORDER BY occurred_at, id`, force, month)
}

// ListByMonth returns records whose instant falls in month, optionally for one force
func (r *queries) ListByMonth(ctx context.Context, month, force string, limit int) ([]domain.Record, error) {
	from, err := tim.ParseYearMonth(month)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "invalid month")
	}
	to := from.AddDate(0, 1, 0)
	if force == "" {
		return r.list(ctx, "list by month",
			selectSQL+` WHERE occurred_at >= $1 AND occurred_at < $2 ORDER BY occurred_at, id LIMIT $3`,
			r.d.ts(from), r.d.ts(to), clamp(limit))
	}
	return r.list(ctx, "list by month",
		selectSQL+` WHERE occurred_at >= $1 AND occurred_at < $2 AND force = $3 ORDER BY occurred_at, id LIMIT $4`,
		r.d.ts(from), r.d.ts(to), force, clamp(limit))
}

// ListByOutcome returns records with exactly this outcome
func (r *queries) ListByOutcome(ctx context.Context, outcome string, limit int) ([]domain.Record, error) {
	return r.list(ctx, "list by outcome",
		selectSQL+` WHERE outcome = $1 ORDER BY occurred_at, id LIMIT $2`, outcome, clamp(limit))
}

// ListByType returns records with exactly this search type
func (r *queries) ListByType(ctx context.Context, searchType string, limit int) ([]domain.Record, error) {
	return r.list(ctx, "list by type",
		selectSQL+` WHERE search_type = $1 ORDER BY occurred_at, id LIMIT $2`, searchType, clamp(limit))
}

// ListWithin returns located records inside box; rows without coordinates never match
func (r *queries) ListWithin(ctx context.Context, box domain.Box, limit int) ([]domain.Record, error) {
	return r.list(ctx, "list within box",
		selectSQL+` WHERE latitude IS NOT NULL AND longitude IS NOT NULL
			AND latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
			ORDER BY occurred_at, id LIMIT $5`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon, clamp(limit))
}

// Summary counts all records by search type and by non-null outcome
func (r *queries) Summary(ctx context.Context) (domain.Summary, error) {
	s := domain.Summary{SearchTypes: map[string]int{}, Outcomes: map[string]int{}}

	total, err := store.Scalar[int64](ctx, r.q, `SELECT COUNT(*) FROM stop_search_records`)
	if err != nil {
		return domain.Summary{}, perr.Storage(err, "count records")
	}
	s.TotalRecords = int(total)

	if err := r.countInto(ctx, s.SearchTypes,
		`SELECT search_type, COUNT(*) FROM stop_search_records GROUP BY search_type`); err != nil {
		return domain.Summary{}, err
	}
	if err := r.countInto(ctx, s.Outcomes,
		`SELECT outcome, COUNT(*) FROM stop_search_records WHERE outcome IS NOT NULL GROUP BY outcome`); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

type bucket struct {
	key string
	n   int64
}

func (r *queries) countInto(ctx context.Context, dst map[string]int, sql string) error {
	rows, err := store.Many(ctx, r.q, func(row store.Row) (bucket, error) {
		var b bucket
		err := row.Scan(&b.key, &b.n)
		return b, err
	}, sql)
	if err != nil {
		return perr.Storage(err, "summary counts")
	}
	for _, b := range rows {
		dst[b.key] = int(b.n)
	}
	return nil
}

func (r *queries) list(ctx context.Context, what, sql string, args ...any) ([]domain.Record, error) {
	out, err := store.Many(ctx, r.q, scanRecord, r.d.rebind(sql), args...)
	if err != nil {
		return nil, perr.Storage(err, what)
	}
	if out == nil {
		out = []domain.Record{}
	}
	return out, nil
}

func scanRecord(row store.Row) (domain.Record, error) {
	var (
		rec domain.Record
		at  any
	)
	err := row.Scan(
		&rec.Force, &rec.Period, &rec.SearchType, &at,
		&rec.Gender, &rec.AgeRange, &rec.SelfDefinedEthnicity, &rec.OfficerDefinedEthnicity,
		&rec.Legislation, &rec.ObjectOfSearch, &rec.Outcome,
		&rec.OutcomeLinkedToObject, &rec.RemovalOfMoreThanOuterClothes,
		&rec.Latitude, &rec.Longitude, &rec.StreetID, &rec.StreetName,
	)
	if err != nil {
		return domain.Record{}, err
	}
	if rec.OccurredAt, err = decodeTime(at); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// decodeTime accepts what either driver hands back for occurred_at
func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	}
	return time.Time{}, fmt.Errorf("occurred_at: unsupported type %T", v)
}

func clamp(limit int) int {
	const max = 1000
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > max:
		return max
	}
	return limit
}
