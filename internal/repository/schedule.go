package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/schedule"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrScheduleNotFound is returned when no schedule has the requested ID.
var ErrScheduleNotFound = errors.New("schedule not found")

// Schedule is a named daily run over a date range, stored with the cron
// expression that implements it.
type Schedule struct {
	ID         string
	Name       string
	Start      cronspan.Date
	End        cronspan.Date
	At         cronspan.TimeOfDay
	Timezone   string
	Expression string
	CreatedAt  time.Time
}

// NewSchedule decomposes the range and returns the schedule to store.
func NewSchedule(id, name string, start, end cronspan.Date, at cronspan.TimeOfDay, timezone string) (Schedule, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return Schedule{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	expr, err := cronspan.Decompose(start, end, at)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{
		ID:         id,
		Name:       name,
		Start:      start,
		End:        end,
		At:         at,
		Timezone:   timezone,
		Expression: expr.String(),
	}, nil
}

// Fragments splits the stored expression into its cron fragments.
func (s Schedule) Fragments() []string {
	if s.Expression == "" {
		return nil
	}
	return strings.Split(s.Expression, cronspan.Separator)
}

// Location is the zone the schedule fires in.
func (s Schedule) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UpcomingRuns returns up to n run times after the given instant, never
// earlier than the first run of the schedule.
func (s Schedule) UpcomingRuns(after time.Time, n int) ([]time.Time, error) {
	loc := s.Location()
	first := s.Start.Time(s.At, loc).Add(-time.Second)
	if after.Before(first) {
		after = first
	}
	return schedule.Occurrences(s.Fragments(), after.In(loc), n)
}

// ScheduleRun is one pending execution of a schedule.
type ScheduleRun struct {
	ID         int64
	ScheduleID string
	Name       string
	RunTime    time.Time
}

type SchedulePersister interface {
	Save(ctx context.Context, s Schedule) error
}

type ScheduleRepository interface {
	SchedulePersister
	Get(ctx context.Context, id string) (Schedule, error)
	List(ctx context.Context) ([]Schedule, error)
	Delete(ctx context.Context, id string) error
	Upcoming(ctx context.Context, id string) ([]ScheduleRun, error)
	Pull(ctx context.Context, before time.Time) ([]ScheduleRun, error)
}

type PostgresScheduleRepository struct {
	db      *pgxpool.Pool
	horizon int
	now     func() time.Time
}

// NewPostgresScheduleRepository stores schedules in db, keeping horizon
// unclaimed runs queued for each of them.
func NewPostgresScheduleRepository(db *pgxpool.Pool, horizon int) *PostgresScheduleRepository {
	if horizon < 1 {
		horizon = 1
	}
	return &PostgresScheduleRepository{db: db, horizon: horizon, now: time.Now}
}

// WithClock replaces the clock used to decide which runs are upcoming.
func (r *PostgresScheduleRepository) WithClock(now func() time.Time) *PostgresScheduleRepository {
	r.now = now
	return r
}

func ScheduleToRowParams(s Schedule) []any {
	return []any{
		s.ID,
		s.Name,
		dateParam(s.Start),
		dateParam(s.End),
		secondsOfDay(s.At),
		s.Timezone,
		s.Expression,
	}
}

func dateParam(d cronspan.Date) time.Time {
	return d.Time(cronspan.TimeOfDay{}, time.UTC)
}

func secondsOfDay(at cronspan.TimeOfDay) int {
	return at.Hour*3600 + at.Minute*60 + at.Second
}

func timeOfDayFromSeconds(s int) cronspan.TimeOfDay {
	return cronspan.TimeOfDay{Hour: s / 3600, Minute: s / 60 % 60, Second: s % 60}
}

func (r *PostgresScheduleRepository) Save(ctx context.Context, s Schedule) error {
	const scheduleQuery = `
	INSERT INTO schedule (id, schedule_name, start_date, end_date, fire_at, timezone, expression)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		schedule_name = EXCLUDED.schedule_name,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		fire_at = EXCLUDED.fire_at,
		timezone = EXCLUDED.timezone,
		expression = EXCLUDED.expression
	`

	runs, err := s.UpcomingRuns(r.now(), r.horizon)
	if err != nil {
		return fmt.Errorf("failed to get upcoming run times: %w", err)
	}

	const clearRunsQuery = `
	DELETE FROM schedule_run
	WHERE schedule_id = $1 AND claimed_at IS NULL
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := tx.Exec(ctx, scheduleQuery, ScheduleToRowParams(s)...); err != nil {
		return fmt.Errorf("failed to execute schedule query: %w", err)
	}
	if _, err := tx.Exec(ctx, clearRunsQuery, s.ID); err != nil {
		return fmt.Errorf("failed to clear pending runs: %w", err)
	}
	if err := insertRuns(ctx, tx, s.ID, runs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertRuns(ctx context.Context, tx pgx.Tx, scheduleID string, runs []time.Time) error {
	if len(runs) == 0 {
		return nil
	}
	const runsQuery = `
	INSERT INTO schedule_run (schedule_id, run_time)
	SELECT $1, unnest($2::timestamptz[])
	ON CONFLICT (schedule_id, run_time) DO NOTHING
	`
	if _, err := tx.Exec(ctx, runsQuery, scheduleID, runs); err != nil {
		return fmt.Errorf("failed to execute schedule runs query: %w", err)
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", slog.Any("error", err))
	}
}

const scheduleColumns = `id::text, schedule_name, start_date, end_date, fire_at, timezone, expression, created_at`

func scanSchedule(row pgx.Row) (Schedule, error) {
	var (
		s          Schedule
		start, end time.Time
		fireAt     int
	)
	if err := row.Scan(&s.ID, &s.Name, &start, &end, &fireAt, &s.Timezone, &s.Expression, &s.CreatedAt); err != nil {
		return Schedule{}, err
	}
	s.Start = cronspan.DateOf(start)
	s.End = cronspan.DateOf(end)
	s.At = timeOfDayFromSeconds(fireAt)
	return s, nil
}

func (r *PostgresScheduleRepository) Get(ctx context.Context, id string) (Schedule, error) {
	row := r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedule WHERE id = $1`, id)
	s, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Schedule{}, ErrScheduleNotFound
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to get schedule %s: %w", id, err)
	}
	return s, nil
}

func (r *PostgresScheduleRepository) List(ctx context.Context) ([]Schedule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduleColumns+` FROM schedule ORDER BY created_at, schedule_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *PostgresScheduleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Upcoming returns the unclaimed runs of a schedule in time order.
func (r *PostgresScheduleRepository) Upcoming(ctx context.Context, id string) ([]ScheduleRun, error) {
	const query = `
	SELECT r.id, r.schedule_id::text, s.schedule_name, r.run_time
	FROM schedule_run r
	JOIN schedule s ON s.id = r.schedule_id
	WHERE r.schedule_id = $1 AND r.claimed_at IS NULL
	ORDER BY r.run_time
	`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming runs: %w", err)
	}
	return collectRuns(rows)
}

func collectRuns(rows pgx.Rows) ([]ScheduleRun, error) {
	defer rows.Close()
	var runs []ScheduleRun
	for rows.Next() {
		var run ScheduleRun
		if err := rows.Scan(&run.ID, &run.ScheduleID, &run.Name, &run.RunTime); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Pull claims every unclaimed run due before the given instant and queues
// the same number of new runs for each affected schedule, so that the
// horizon stays full until the schedule's range is exhausted.
func (r *PostgresScheduleRepository) Pull(ctx context.Context, before time.Time) ([]ScheduleRun, error) {
	const claimQuery = `
	UPDATE schedule_run r
	SET claimed_at = now()
	FROM schedule s
	WHERE r.schedule_id = s.id
		AND r.claimed_at IS NULL
		AND r.run_time <= $1
	RETURNING r.id, r.schedule_id::text, s.schedule_name, r.run_time
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	rows, err := tx.Query(ctx, claimQuery, before)
	if err != nil {
		return nil, fmt.Errorf("failed to claim runs: %w", err)
	}
	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]int)
	for _, run := range runs {
		claimed[run.ScheduleID]++
	}
	for id, n := range claimed {
		if err := r.replenish(ctx, tx, id, n); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	sortRuns(runs)
	return runs, nil
}

func sortRuns(runs []ScheduleRun) {
	slices.SortFunc(runs, func(a, b ScheduleRun) int {
		if c := a.RunTime.Compare(b.RunTime); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
}

func (r *PostgresScheduleRepository) replenish(ctx context.Context, tx pgx.Tx, id string, n int) error {
	s, err := scanSchedule(tx.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedule WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("failed to load schedule %s: %w", id, err)
	}

	var last time.Time
	if err := tx.QueryRow(ctx, `SELECT max(run_time) FROM schedule_run WHERE schedule_id = $1`, id).Scan(&last); err != nil {
		return fmt.Errorf("failed to find last run of schedule %s: %w", id, err)
	}

	runs, err := s.UpcomingRuns(last, n)
	if err != nil {
		return fmt.Errorf("failed to get upcoming run times: %w", err)
	}
	return insertRuns(ctx, tx, id, runs)
}

var _ ScheduleRepository = (*PostgresScheduleRepository)(nil)
