package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/glizzus/cronspan/internal/config"
	"github.com/glizzus/cronspan/internal/datalayer"
	"github.com/glizzus/cronspan/internal/generator"
	"github.com/glizzus/cronspan/internal/handler"
	"github.com/glizzus/cronspan/internal/repository"
)

func runBotForever(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}

	cronspanConfig, err := config.NewCronspanConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load cronspan config: %w", err)
	}

	var store handler.ScheduleStore
	if discordConfig.SaveSchedules {
		pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := datalayer.MigratePostgres(pool); err != nil {
			return fmt.Errorf("failed to migrate postgres: %w", err)
		}
		store = repository.NewPostgresScheduleRepository(pool, cronspanConfig.RunHorizon)
	} else {
		slog.Info("Saving schedules is disabled")
	}

	interactionHandler := handler.NewInteractionHandler(store, handler.Options{
		Parser:   cronspanConfig.Parser(),
		Timezone: cronspanConfig.Timezone,
		Preview:  cronspanConfig.PreviewCount,
	}, &generator.UUIDV7Generator{})

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready:             handler.ReadyLog,
		InteractionCreate: handler.Adapt(interactionHandler),
	})
	if err != nil {
		return err
	}

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	if err := handler.EstablishCommands(session, discordConfig.CommandGuildID()); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runBotForever(ctx); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
