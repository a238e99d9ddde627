// Package lookup resolves a ZIP code to its county and returns the county's
// health-ranking records for one measure.
//
// Both tables are plain all-TEXT tables produced by the loader:
// zip_county and county_health_rankings.
package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/jmoiron/sqlx"
)

const (
	// ZipTable is the table mapping ZIP codes to counties.
	ZipTable = "zip_county"

	// RankingsTable is the table holding county health measures.
	RankingsTable = "county_health_rankings"

	// Teapot is the Coffee value that short-circuits every lookup.
	Teapot = "teapot"
)

const zipQuery = `SELECT county, state_abbreviation AS state FROM zip_county WHERE zip = ? LIMIT 1`

const rankingsQuery = `SELECT state, county, state_code, county_code, year_span, measure_name,
	measure_id, numerator, denominator, raw_value, confidence_interval_lower_bound,
	confidence_interval_upper_bound, data_release_year, fipscode
FROM county_health_rankings
WHERE county = ? AND state = ? AND measure_name = ?
ORDER BY rowid`

var zipPattern = regexp.MustCompile(`^\d{5}$`)

var allowedMeasures = []string{
	"Violent crime rate",
	"Unemployment",
	"Children in poverty",
	"Diabetic screening",
	"Mammography screening",
	"Preventable hospital stays",
	"Uninsured",
	"Sexually transmitted infections",
	"Physical inactivity",
	"Adult obesity",
	"Premature Death",
	"Daily fine particulate matter",
}

// Measures returns the measure names a Request may ask for.
func Measures() []string {
	return slices.Clone(allowedMeasures)
}

// IsAllowedMeasure reports whether name is one of Measures, matched exactly.
func IsAllowedMeasure(name string) bool {
	return slices.Contains(allowedMeasures, name)
}

// Request is one lookup.
type Request struct {
	Zip         string `json:"zip" yaml:"zip"`
	MeasureName string `json:"measure_name" yaml:"measure_name"`
	Coffee      string `json:"coffee,omitempty" yaml:"coffee,omitempty"`
}

// Validate checks the request without touching the store.
func (r Request) Validate() error {
	if !zipPattern.MatchString(r.Zip) {
		return badRequest("zip must be a 5-digit string")
	}
	if !IsAllowedMeasure(r.MeasureName) {
		return badRequest("measure_name not in allowed list")
	}
	return nil
}

// County is the result of resolving a ZIP code.
type County struct {
	County *string `db:"county" json:"county"`
	State  *string `db:"state" json:"state"`
}

// Record is one county_health_rankings row. NULL cells are nil.
type Record struct {
	State                        *string `db:"state" json:"state" csv:"state"`
	County                       *string `db:"county" json:"county" csv:"county"`
	StateCode                    *string `db:"state_code" json:"state_code" csv:"state_code"`
	CountyCode                   *string `db:"county_code" json:"county_code" csv:"county_code"`
	YearSpan                     *string `db:"year_span" json:"year_span" csv:"year_span"`
	MeasureName                  *string `db:"measure_name" json:"measure_name" csv:"measure_name"`
	MeasureID                    *string `db:"measure_id" json:"measure_id" csv:"measure_id"`
	Numerator                    *string `db:"numerator" json:"numerator" csv:"numerator"`
	Denominator                  *string `db:"denominator" json:"denominator" csv:"denominator"`
	RawValue                     *string `db:"raw_value" json:"raw_value" csv:"raw_value"`
	ConfidenceIntervalLowerBound *string `db:"confidence_interval_lower_bound" json:"confidence_interval_lower_bound" csv:"confidence_interval_lower_bound"`
	ConfidenceIntervalUpperBound *string `db:"confidence_interval_upper_bound" json:"confidence_interval_upper_bound" csv:"confidence_interval_upper_bound"`
	DataReleaseYear              *string `db:"data_release_year" json:"data_release_year" csv:"data_release_year"`
	FIPSCode                     *string `db:"fipscode" json:"fipscode" csv:"fipscode"`
}

// Service answers lookups against a store holding both tables.
// It only reads and is safe for concurrent use.
type Service struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service reading from db, a go-sqlite3 handle.
// The caller owns db and closes it.
func New(db *sql.DB, opts ...Option) *Service {
	s := &Service{db: sqlx.NewDb(db, "sqlite3"), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the rankings rows for the county containing req.Zip and
// the requested measure, in load order.
//
// A "teapot" Coffee returns ErrTeapot before validation. Invalid requests
// return a bad-request Error without reading any table. A ZIP or measure
// with no rows returns a not-found Error. Any other error comes from the
// store.
func (s *Service) Lookup(ctx context.Context, req Request) ([]Record, error) {
	if req.Coffee == Teapot {
		return nil, ErrTeapot
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	county, err := s.ResolveZip(ctx, req.Zip)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := s.db.SelectContext(ctx, &records, rankingsQuery, county.County, county.State, req.MeasureName); err != nil {
		return nil, fmt.Errorf("query %s: %w", RankingsTable, err)
	}
	if len(records) == 0 {
		return nil, notFound("No data for given zip and measure_name")
	}

	s.logger.Debug("lookup",
		"zip", req.Zip,
		"measure", req.MeasureName,
		"county", deref(county.County),
		"state", deref(county.State),
		"rows", len(records),
	)
	return records, nil
}

// ResolveZip returns the county and state abbreviation of the first
// zip_county row for zip.
func (s *Service) ResolveZip(ctx context.Context, zip string) (County, error) {
	var county County
	err := s.db.GetContext(ctx, &county, zipQuery, zip)
	if errors.Is(err, sql.ErrNoRows) {
		return County{}, notFound("ZIP not found in dataset")
	}
	if err != nil {
		return County{}, fmt.Errorf("query %s: %w", ZipTable, err)
	}
	return county, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
