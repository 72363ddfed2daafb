package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/datalayer"
	"github.com/glizzus/cronspan/internal/generator"
	"github.com/glizzus/cronspan/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var seedOnce sync.Once

// NoiseYear is the year noise schedules run in. Tests that pull runs should
// stay before it.
const NoiseYear = 2095

// SeedGlobalNoise stores schedules unrelated to any test, once per run.
func SeedGlobalNoise(t *testing.T, repo *repository.PostgresScheduleRepository) {
	t.Helper()
	seedOnce.Do(func() {
		uuidGen := generator.UUIDV4Generator{}
		for i := range 100 {
			id, _ := uuidGen.Next()
			start := cronspan.NewDate(NoiseYear, time.January, 1).AddDays(i)
			end := start.AddDays(i * 7)

			s, err := repository.NewSchedule(id, fmt.Sprintf("noise-schedule-%d", i), start, end, cronspan.TimeOfDay{Hour: i % 24}, "UTC")
			if err != nil {
				t.Fatalf("failed to build noise schedule: %v", err)
			}
			if err := repo.Save(t.Context(), s); err != nil {
				t.Fatalf("failed to save schedule: %v", err)
			}
		}
	})
}

var (
	once              sync.Once
	postgresContainer *postgres.PostgresContainer
	connStr           string
	startErr          error
	pool              *pgxpool.Pool
	wg                sync.WaitGroup
)

// UsePostgres signals that the test is using Postgres as its database.
// This will either provision or reuse a Postgres container for the test.
// Do not expect a clean state in the database; it is shared across tests
// to simulate real-world usage.
func UsePostgres(t *testing.T) string {
	t.Helper()

	once.Do(func() {
		ctx := context.Background()
		postgresContainer, startErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("cronspan"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if startErr != nil {
			return
		}
		connStr, startErr = postgresContainer.ConnectionString(ctx)
		if startErr != nil {
			return
		}

		pool, startErr = pgxpool.New(ctx, connStr)
		if startErr != nil {
			return
		}
		defer pool.Close()

		startErr = datalayer.MigratePostgres(pool)
	})

	if startErr != nil {
		t.Fatalf("failed to start postgres container: %v", startErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	return connStr
}

// GetRepository creates a new PostgresScheduleRepository for testing.
// It uses the provided connection string to connect to the database.
// It performs no modifications or migrations on the database schema.
func GetRepository(t *testing.T, connStr string, horizon int) *repository.PostgresScheduleRepository {
	t.Helper()
	pool, err := pgxpool.New(t.Context(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return repository.NewPostgresScheduleRepository(pool, horizon)
}

func TerminatePostgresForE2E() {
	wg.Wait()
	if postgresContainer != nil {
		err := postgresContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate postgres container: %v", err)
		}
	}
}

var (
	redisOnce      sync.Once
	redisContainer *tcredis.RedisContainer
	redisOpts      *redis.Options
	redisErr       error
	redisWG        sync.WaitGroup
)

// UseRedis provisions or reuses a Redis container and returns a client for
// it. Tests should use their own stream names.
func UseRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisOnce.Do(func() {
		ctx := context.Background()
		redisContainer, redisErr = tcredis.Run(ctx, "redis:7")
		if redisErr != nil {
			return
		}
		var uri string
		uri, redisErr = redisContainer.ConnectionString(ctx)
		if redisErr != nil {
			return
		}
		redisOpts, redisErr = redis.ParseURL(uri)
	})

	if redisErr != nil {
		t.Fatalf("failed to start redis container: %v", redisErr)
	}
	redisWG.Add(1)
	t.Cleanup(redisWG.Done)

	rdb := redis.NewClient(redisOpts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TerminateRedisForE2E() {
	redisWG.Wait()
	if redisContainer != nil {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			fmt.Printf("failed to terminate redis container: %v", err)
		}
	}
}
