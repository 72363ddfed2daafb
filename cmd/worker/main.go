package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/glizzus/cronspan/internal/config"
	"github.com/glizzus/cronspan/internal/datalayer"
	"github.com/glizzus/cronspan/internal/handler"
	"github.com/glizzus/cronspan/internal/repository"
	"github.com/glizzus/cronspan/internal/worker"
)

var (
	dryRun   = flag.Bool("dry-run", false, "Do not use Discord, just print run info to terminal")
	dispatch = flag.Duration("dispatch", 0, "Also move due runs from Postgres to the stream at this interval")
)

func runWorkerForever(ctx context.Context) error {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	rdb, err := datalayer.NewRedisClient(ctx, redisConfig)
	if err != nil {
		return err
	}
	defer rdb.Close()

	consumer, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}

	var executor worker.Executor = worker.LogExecutor{}
	if !*dryRun {
		discordConfig, err := config.NewDiscordConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load discord config: %w", err)
		}
		if discordConfig.NotifyChannelID == "" {
			return fmt.Errorf("DISCORD_NOTIFY_CHANNEL_ID is required unless --dry-run is set")
		}

		session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
			Ready: handler.ReadyLog,
		})
		if err != nil {
			return err
		}
		if err := session.Open(); err != nil {
			return fmt.Errorf("failed to open discord session: %w", err)
		}
		defer func() {
			if err := session.Close(); err != nil {
				slog.Error("failed to close discord session", "error", err)
			}
		}()
		executor = worker.NewDiscordNotifier(session, discordConfig.NotifyChannelID)
	}

	if *dispatch > 0 {
		cronspanConfig, err := config.NewCronspanConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load cronspan config: %w", err)
		}
		pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := datalayer.MigratePostgres(pool); err != nil {
			return fmt.Errorf("failed to migrate postgres: %w", err)
		}

		jobHandler, err := worker.NewRedisJobHandler(ctx, rdb, redisConfig.Stream, redisConfig.Group)
		if err != nil {
			return err
		}
		repo := repository.NewPostgresScheduleRepository(pool, cronspanConfig.RunHorizon)
		dispatcher := worker.NewDispatcher(repo, jobHandler, *dispatch*2)
		go dispatcher.Run(ctx, *dispatch)
	}

	pauses := worker.NewRedisPauseSet(rdb)
	jobReceiver, err := worker.NewRedisJobReceiver(ctx, rdb, redisConfig.Stream, redisConfig.Group, consumer)
	if err != nil {
		return err
	}

	slog.Info("Worker started", "consumer", consumer, "stream", redisConfig.Stream, "dryRun", *dryRun)
	for {
		jobs, err := jobReceiver.ReceiveJobs(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.Error("failed to receive jobs", "error", err)
			time.Sleep(time.Second)
			continue
		}

		worker.ScheduleJobs(ctx, jobs, pauses, executor)
	}
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runWorkerForever(ctx); err != nil {
		slog.Error("Worker encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
