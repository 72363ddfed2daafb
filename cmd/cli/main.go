package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glizzus/cronspan/internal/config"
	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/datalayer"
	"github.com/glizzus/cronspan/internal/dates"
	"github.com/glizzus/cronspan/internal/generator"
	"github.com/glizzus/cronspan/internal/repository"
	"github.com/glizzus/cronspan/internal/schedule"
	"github.com/glizzus/cronspan/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
)

var stdinReader = bufio.NewReader(os.Stdin)

func prompt(w io.Writer, label string) string {
	fmt.Fprintf(w, "%s: ", label)
	input, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(input)
}

var rangeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "start",
		Usage:    "First day of the range",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "end",
		Usage:    "Last day of the range, inclusive",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "time",
		Usage:    "Time of day to fire",
		Required: true,
	},
}

var idFlag = &cli.StringFlag{
	Name:     "id",
	Usage:    "ID of the schedule",
	Required: true,
}

func withFlags(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, rangeFlags...), flags...)
}

// app holds what the commands need. Connections are opened on first use so
// that commands which only decompose work without any infrastructure.
type app struct {
	cfg *config.CronspanConfig
	ids generator.Generator[string]

	pool *pgxpool.Pool
}

func (a *app) repo(ctx context.Context) (*repository.PostgresScheduleRepository, error) {
	if a.pool == nil {
		pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		if err := datalayer.MigratePostgres(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		a.pool = pool
	}
	return repository.NewPostgresScheduleRepository(a.pool, a.cfg.RunHorizon), nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func parseRange(c *cli.Context, p cronspan.Parser) (cronspan.Date, cronspan.Date, cronspan.TimeOfDay, error) {
	return p.ParseRange(c.String("start"), c.String("end"), c.String("time"))
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

const defaultRunPattern = "yyyy-MM-dd'T'HH:mm:ssXXX"

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Usage: "Date pattern run times are printed with",
	Value: defaultRunPattern,
}

func printRuns(w io.Writer, runs []time.Time, pattern string) error {
	if _, err := dates.Layout(pattern); err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintln(w, dates.Format(r, pattern))
	}
	return nil
}

func newApp(a *app) *cli.App {
	return &cli.App{
		Name:        "cronspan",
		Usage:       "Turn date ranges into cron expressions",
		Description: "A CLI for generating, storing and dispatching date range schedules without Discord",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Print the cron fragments that fire once a day over a date range",
				Flags: withFlags(&cli.BoolFlag{
					Name:  "joined",
					Usage: "Print the fragments as one comma separated expression",
				}),
				Action: func(c *cli.Context) error {
					start, end, at, err := parseRange(c, a.cfg.Parser())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					expr, err := cronspan.Decompose(start, end, at)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if c.Bool("joined") {
						fmt.Fprintln(c.App.Writer, expr.String())
						return nil
					}
					printLines(c.App.Writer, expr.Strings())
					return nil
				},
			},
			{
				Name:  "daily",
				Usage: "Print the cron expression that fires every day",
				Flags: []cli.Flag{
					rangeFlags[2],
					&cli.IntFlag{
						Name:  "count",
						Usage: "Also print this many upcoming run times",
					},
					formatFlag,
				},
				Action: func(c *cli.Context) error {
					fragment, err := a.cfg.Parser().Daily(c.String("time"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintln(c.App.Writer, fragment)

					if n := c.Int("count"); n > 0 {
						runs, err := schedule.NextRunTimes(fragment.String(), n)
						if err != nil {
							return cli.Exit(err.Error(), 1)
						}
						if err := printRuns(c.App.Writer, runs, c.String("format")); err != nil {
							return cli.Exit(err.Error(), 1)
						}
					}
					return nil
				},
			},
			{
				Name:  "preview",
				Usage: "Print the next run times of a date range schedule",
				Flags: withFlags(&cli.IntFlag{
					Name:  "count",
					Usage: "How many run times to print, CRONSPAN_PREVIEW_COUNT if unset",
				}, formatFlag),
				Action: func(c *cli.Context) error {
					start, end, at, err := parseRange(c, a.cfg.Parser())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					sched, err := repository.NewSchedule("", "", start, end, at, a.cfg.Timezone)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					count := c.Int("count")
					if count < 1 {
						count = a.cfg.PreviewCount
					}
					runs, err := schedule.Occurrences(sched.Fragments(), start.Time(at, sched.Location()).Add(-time.Second), count)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if err := printRuns(c.App.Writer, runs, c.String("format")); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					return nil
				},
			},
			{
				Name:  "save",
				Usage: "Store a date range schedule and queue its runs",
				Flags: withFlags(&cli.StringFlag{
					Name:  "name",
					Usage: "Name of the schedule, prompted for if missing",
				}),
				Action: func(c *cli.Context) error {
					start, end, at, err := parseRange(c, a.cfg.Parser())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					name := c.String("name")
					if name == "" {
						name = prompt(c.App.Writer, "Enter schedule name")
					}
					id, err := a.ids.Next()
					if err != nil {
						return cli.Exit("Failed to generate ID: "+err.Error(), 1)
					}
					sched, err := repository.NewSchedule(id, name, start, end, at, a.cfg.Timezone)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					repo, err := a.repo(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if err := repo.Save(c.Context, sched); err != nil {
						return cli.Exit("Failed to save schedule: "+err.Error(), 1)
					}
					fmt.Fprintln(c.App.Writer, sched.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List stored schedules",
				Action: func(c *cli.Context) error {
					repo, err := a.repo(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					schedules, err := repo.List(c.Context)
					if err != nil {
						return cli.Exit("Failed to list schedules: "+err.Error(), 1)
					}
					if len(schedules) == 0 {
						log.Println("No schedules found.")
						return nil
					}
					for _, s := range schedules {
						fmt.Fprintf(c.App.Writer, "%s\t%s\t%s..%s@%s\t%s\n", s.ID, s.Name, s.Start, s.End, s.At, s.Expression)
					}
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "Write a stored schedule to object storage as JSON",
				Flags: []cli.Flag{idFlag},
				Action: func(c *cli.Context) error {
					repo, err := a.repo(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					sched, err := repo.Get(c.Context, c.String("id"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					minioConfig, err := config.NewMinioConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load minio config: "+err.Error(), 1)
					}
					storage, err := datalayer.NewMinioStorage(minioConfig)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if err := storage.EnsureBucket(c.Context); err != nil {
						return cli.Exit(err.Error(), 1)
					}

					key, err := repository.NewScheduleExporter(storage, minioConfig.Prefix).Export(c.Context, sched, a.cfg.PreviewCount)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintln(c.App.Writer, key)
					return nil
				},
			},
			{
				Name:  "dispatch",
				Usage: "Move runs due soon from Postgres to the Redis run stream once",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "lookahead",
						Usage: "Dispatch runs due within this window",
						Value: time.Minute,
					},
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Log claimed runs instead of publishing them to Redis",
					},
				},
				Action: func(c *cli.Context) error {
					repo, err := a.repo(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if c.Bool("print") {
						n, err := worker.NewDispatcher(repo, &worker.PrintingJobHandler{}, c.Duration("lookahead")).DispatchOnce(c.Context)
						if err != nil {
							return cli.Exit(err.Error(), 1)
						}
						log.Printf("Claimed %d runs.", n)
						return nil
					}

					redisConfig, err := config.NewRedisConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load redis config: "+err.Error(), 1)
					}
					rdb, err := datalayer.NewRedisClient(c.Context, redisConfig)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					defer rdb.Close()

					jobHandler, err := worker.NewRedisJobHandler(c.Context, rdb, redisConfig.Stream, redisConfig.Group)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					n, err := worker.NewDispatcher(repo, jobHandler, c.Duration("lookahead")).DispatchOnce(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					log.Printf("Dispatched %d runs.", n)
					return nil
				},
			},
			pauseCommand("pause", "Stop workers from firing a schedule", worker.PauseAdder.Pause),
			pauseCommand("resume", "Let workers fire a paused schedule again", worker.PauseAdder.Resume),
		},
	}
}

func pauseCommand(name, usage string, apply func(worker.PauseAdder, context.Context, string) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{idFlag},
		Action: func(c *cli.Context) error {
			redisConfig, err := config.NewRedisConfigFromEnv()
			if err != nil {
				return cli.Exit("Failed to load redis config: "+err.Error(), 1)
			}
			rdb, err := datalayer.NewRedisClient(c.Context, redisConfig)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer rdb.Close()

			if err := apply(worker.NewRedisPauseSet(rdb), c.Context, c.String("id")); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	cfg, err := config.NewCronspanConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load cronspan config: %v", err)
	}

	a := &app{cfg: cfg, ids: &generator.UUIDV7Generator{}}
	defer a.close()

	if err := newApp(a).Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
