package repository_test

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/datalayer"
	"github.com/glizzus/cronspan/internal/repository"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var nineThirty = cronspan.TimeOfDay{Hour: 9, Minute: 30}

func TestNewScheduleRejectsReversedRange(t *testing.T) {
	_, err := repository.NewSchedule(
		"id", "backwards",
		cronspan.Date{Year: 2090, Month: time.March, Day: 2},
		cronspan.Date{Year: 2090, Month: time.March, Day: 1},
		nineThirty, "UTC",
	)
	var rangeErr *cronspan.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("NewSchedule error = %v; want *InvalidRangeError", err)
	}
}

func TestNewScheduleRejectsUnknownTimezone(t *testing.T) {
	_, err := repository.NewSchedule(
		"id", "nowhere",
		cronspan.Date{Year: 2090, Month: time.March, Day: 1},
		cronspan.Date{Year: 2090, Month: time.March, Day: 2},
		nineThirty, "Nowhere/Special",
	)
	if err == nil {
		t.Errorf("NewSchedule accepted an unknown timezone")
	}
}

func TestScheduleUpcomingRuns(t *testing.T) {
	s, err := repository.NewSchedule(
		"id", "new year",
		cronspan.Date{Year: 2090, Month: time.December, Day: 30},
		cronspan.Date{Year: 2091, Month: time.January, Day: 2},
		nineThirty, "",
	)
	if err != nil {
		t.Fatalf("NewSchedule returned error: %v", err)
	}
	if s.Timezone != "UTC" {
		t.Errorf("Timezone defaulted to %q; want UTC", s.Timezone)
	}
	if diff := cmp.Diff([]string{"0 30 9 30-31 12 ? 2090", "0 30 9 1-2 1 ? 2091"}, s.Fragments()); diff != "" {
		t.Errorf("Fragments() mismatch (-want +got):\n%s", diff)
	}

	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
	}
	tests := []struct {
		name  string
		after time.Time
		n     int
		want  []time.Time
	}{
		{
			name:  "before the range starts",
			after: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			n:     2,
			want:  []time.Time{at(2090, 12, 30), at(2090, 12, 31)},
		},
		{
			name:  "inside the range",
			after: at(2090, 12, 31),
			n:     5,
			want:  []time.Time{at(2091, 1, 1), at(2091, 1, 2)},
		},
		{
			name:  "after the range ends",
			after: at(2091, 1, 2),
			n:     5,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.UpcomingRuns(tt.after, tt.n)
			if err != nil {
				t.Fatalf("UpcomingRuns returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("UpcomingRuns(%v, %d) mismatch (-want +got):\n%s", tt.after, tt.n, diff)
			}
		})
	}
}

func TestScheduleUpcomingRunsInTimezone(t *testing.T) {
	s, err := repository.NewSchedule(
		"id", "shanghai",
		cronspan.Date{Year: 2090, Month: time.June, Day: 1},
		cronspan.Date{Year: 2090, Month: time.June, Day: 1},
		cronspan.TimeOfDay{Hour: 8}, "Asia/Shanghai",
	)
	if err != nil {
		t.Fatalf("NewSchedule returned error: %v", err)
	}
	got, err := s.UpcomingRuns(time.Now(), 3)
	if err != nil {
		t.Fatalf("UpcomingRuns returned error: %v", err)
	}
	want := []time.Time{time.Date(2090, 6, 1, 0, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UpcomingRuns mismatch (-want +got):\n%s", diff)
	}
}

func TestRepositorySave(t *testing.T) {
	ctx := t.Context()
	postgresContainer, err := postgres.Run(
		ctx,
		"postgres",
		postgres.WithDatabase("cronspan"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate postgres container: %v", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	clock := time.Date(2090, 12, 1, 0, 0, 0, 0, time.UTC)
	repo := repository.NewPostgresScheduleRepository(pool, 3).WithClock(func() time.Time { return clock })

	id := "e281f5c0-c05f-423d-9add-c0ffee084f27"
	s, err := repository.NewSchedule(
		id, "Test Schedule",
		cronspan.Date{Year: 2090, Month: time.December, Day: 29},
		cronspan.Date{Year: 2091, Month: time.January, Day: 2},
		nineThirty, "UTC",
	)
	if err != nil {
		t.Fatalf("NewSchedule returned error: %v", err)
	}
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("failed to save Schedule: %v", err)
	}

	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
	}
	runTimes := func(runs []repository.ScheduleRun) []time.Time {
		var times []time.Time
		for _, run := range runs {
			times = append(times, run.RunTime.UTC())
		}
		return times
	}

	t.Run("The Schedule should be saved as a row in the database", func(t *testing.T) {
		got, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("failed to get Schedule: %v", err)
		}
		if diff := cmp.Diff(s, got, cmpIgnoreCreatedAt); diff != "" {
			t.Errorf("Get() mismatch (-want +got):\n%s", diff)
		}

		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list Schedules: %v", err)
		}
		if len(all) != 1 || all[0].ID != id {
			t.Errorf("List() = %+v; want only %s", all, id)
		}
	})

	t.Run("The Schedule should have upcoming runs up to the horizon", func(t *testing.T) {
		runs, err := repo.Upcoming(ctx, id)
		if err != nil {
			t.Fatalf("failed to query upcoming runs: %v", err)
		}
		want := []time.Time{at(2090, 12, 29), at(2090, 12, 30), at(2090, 12, 31)}
		if diff := cmp.Diff(want, runTimes(runs)); diff != "" {
			t.Errorf("Upcoming() mismatch (-want +got):\n%s", diff)
		}
		for _, run := range runs {
			if run.ScheduleID != id || run.Name != "Test Schedule" {
				t.Errorf("run %+v does not belong to the saved Schedule", run)
			}
		}
	})

	t.Run("Pulling claims due runs and tops up the horizon", func(t *testing.T) {
		pulled, err := repo.Pull(ctx, at(2090, 12, 30))
		if err != nil {
			t.Fatalf("failed to pull runs: %v", err)
		}
		if diff := cmp.Diff([]time.Time{at(2090, 12, 29), at(2090, 12, 30)}, runTimes(pulled)); diff != "" {
			t.Errorf("Pull() mismatch (-want +got):\n%s", diff)
		}

		runs, err := repo.Upcoming(ctx, id)
		if err != nil {
			t.Fatalf("failed to query upcoming runs: %v", err)
		}
		want := []time.Time{at(2090, 12, 31), at(2091, 1, 1), at(2091, 1, 2)}
		if diff := cmp.Diff(want, runTimes(runs)); diff != "" {
			t.Errorf("Upcoming() after pull mismatch (-want +got):\n%s", diff)
		}

		again, err := repo.Pull(ctx, at(2090, 12, 30))
		if err != nil {
			t.Fatalf("failed to pull runs: %v", err)
		}
		if len(again) != 0 {
			t.Errorf("runs were pulled twice: %+v", again)
		}
	})

	t.Run("Pulling past the end of the range drains the schedule", func(t *testing.T) {
		if _, err := repo.Pull(ctx, at(2091, 1, 5)); err != nil {
			t.Fatalf("failed to pull runs: %v", err)
		}
		runs, err := repo.Upcoming(ctx, id)
		if err != nil {
			t.Fatalf("failed to query upcoming runs: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no upcoming runs, got %+v", runs)
		}
	})

	t.Run("Deleting removes the Schedule", func(t *testing.T) {
		if err := repo.Delete(ctx, id); err != nil {
			t.Fatalf("failed to delete Schedule: %v", err)
		}
		if _, err := repo.Get(ctx, id); !errors.Is(err, repository.ErrScheduleNotFound) {
			t.Errorf("Get() after delete error = %v; want ErrScheduleNotFound", err)
		}
		if err := repo.Delete(ctx, id); !errors.Is(err, repository.ErrScheduleNotFound) {
			t.Errorf("second Delete() error = %v; want ErrScheduleNotFound", err)
		}
	})
}

var cmpIgnoreCreatedAt = cmp.Comparer(func(a, b repository.Schedule) bool {
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b
})
