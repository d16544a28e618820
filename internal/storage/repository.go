package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertReportRunSQL = `INSERT INTO report_runs (
        run_ts,
        today_date,
        prev_date,
        products,
        has_weekly,
        message,
        status
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    RETURNING id, run_ts, today_date, prev_date, products, has_weekly, message, status, created_at;`

	listRecentRunsSQL = `SELECT
        id,
        run_ts,
        today_date,
        prev_date,
        products,
        has_weekly,
        message,
        status,
        created_at
    FROM report_runs
    ORDER BY run_ts DESC
    LIMIT $1;`

	countRunsSQL = `SELECT COUNT(*) FROM report_runs;`
)

// ReportRunStore defines operations for report-run auditing.
type ReportRunStore interface {
	InsertReportRun(ctx context.Context, run ReportRun) (ReportRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]ReportRun, error)
	CountRuns(ctx context.Context) (int64, error)
}

// Store provides access to archived report runs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertReportRun archives one completed run.
func (s *Store) InsertReportRun(ctx context.Context, run ReportRun) (ReportRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return ReportRun{}, err
	}

	row := pool.QueryRow(ctx, insertReportRunSQL,
		run.RunTS,
		run.TodayDate,
		run.PrevDate,
		run.Products,
		run.HasWeekly,
		run.Message,
		run.Status,
	)

	stored, err := scanReportRun(row)
	if err != nil {
		return ReportRun{}, fmt.Errorf("insert report run: %w", err)
	}
	return stored, nil
}

// ListRecentRuns lists the most recent archived runs.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]ReportRun, 0)
	for rows.Next() {
		run, scanErr := scanReportRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CountRuns returns the number of archived runs.
func (s *Store) CountRuns(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := pool.QueryRow(ctx, countRunsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

func scanReportRun(row pgx.Row) (ReportRun, error) {
	var run ReportRun
	var todayDate, prevDate time.Time
	err := row.Scan(
		&run.ID,
		&run.RunTS,
		&todayDate,
		&prevDate,
		&run.Products,
		&run.HasWeekly,
		&run.Message,
		&run.Status,
		&run.CreatedAt,
	)
	if err != nil {
		return ReportRun{}, fmt.Errorf("scan report run: %w", err)
	}
	run.TodayDate = todayDate
	run.PrevDate = prevDate
	return run, nil
}

var _ ReportRunStore = (*Store)(nil)
