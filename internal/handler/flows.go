package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/generator"
	"github.com/glizzus/cronspan/internal/presenters"
	"github.com/glizzus/cronspan/internal/repository"
)

// ScheduleStore is the part of the schedule repository the bot uses.
type ScheduleStore interface {
	repository.SchedulePersister
	Get(ctx context.Context, id string) (repository.Schedule, error)
	List(ctx context.Context) ([]repository.Schedule, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	Parser   cronspan.Parser
	Timezone string
	Preview  int
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Parser.DatePattern == "" || o.Parser.TimePattern == "" {
		o.Parser = cronspan.DefaultParser
	}
	if o.Timezone == "" {
		o.Timezone = "UTC"
	}
	if o.Preview < 1 {
		o.Preview = 5
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

const scheduleIDKey = "scheduleID"

var errSavingDisabled = &UserError{Message: "Saving schedules is disabled."}

func isCommand(name string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		if i.Type != discordgo.InteractionApplicationCommand {
			return false
		}
		return i.ApplicationCommandData().Name == name
	}
}

func isComponent(componentID string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		if i.Type != discordgo.InteractionMessageComponent {
			return false
		}
		return strings.HasPrefix(i.MessageComponentData().CustomID, componentID+":")
	}
}

var PingFlow = &Flow{
	ID: "ping",
	Root: &Node{
		ID:      "ping",
		Matcher: isCommand("ping"),
		Handler: func(s DiscordSession, i *discordgo.InteractionCreate, ctx *FlowContext) error {
			return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: "Pong!",
				},
			})
		},
	},
}

func GenerateFlow(store ScheduleStore, opts Options, idGenerator generator.Generator[string]) *Flow {
	return &Flow{
		ID: "generate",
		Root: &Node{
			ID:      "generate",
			Matcher: isSubcommand("generate"),
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, _ *FlowContext) error {
				sub, _ := subcommand(i)
				req, err := CommandToGenerateRequest(sub.Options)
				if err != nil {
					return err
				}

				start, end, at, err := opts.Parser.ParseRange(req.Start, req.End, req.At)
				if err != nil {
					return inputError(err)
				}

				id, err := idGenerator.Next()
				if err != nil {
					return fmt.Errorf("failed to generate schedule ID: %w", err)
				}

				sched, err := repository.NewSchedule(id, req.Name, start, end, at, opts.Timezone)
				if err != nil {
					return inputError(err)
				}

				runs, err := sched.UpcomingRuns(opts.Now(), opts.Preview)
				if err != nil {
					return fmt.Errorf("failed to compute upcoming runs: %w", err)
				}

				title := fmt.Sprintf("%s to %s at %s", start, end, at)
				if req.Name != "" && store != nil {
					if err := store.Save(context.Background(), sched); err != nil {
						return fmt.Errorf("failed to save schedule: %w", err)
					}
					title = "Saved " + req.Name
				}

				return s.InteractionRespond(i.Interaction, presenters.BuildExpressionResponse(title, sched.Fragments(), runs))
			},
		},
	}
}

func DailyFlow(opts Options) *Flow {
	return &Flow{
		ID: "daily",
		Root: &Node{
			ID:      "daily",
			Matcher: isSubcommand("daily"),
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, _ *FlowContext) error {
				sub, _ := subcommand(i)
				req, err := CommandToDailyRequest(sub.Options)
				if err != nil {
					return err
				}
				fragment, err := opts.Parser.Daily(req.At)
				if err != nil {
					return inputError(err)
				}
				return s.InteractionRespond(i.Interaction, presenters.BuildDailyResponse(fragment))
			},
		},
	}
}

// ListFlow lists saved schedules, shows the one the user selects and
// deletes it if asked to.
func ListFlow(store ScheduleStore, opts Options) *Flow {
	deleteNode := &Node{
		ID:      "delete",
		Matcher: isComponent(presenters.ComponentIDScheduleDelete),
		Handler: func(s DiscordSession, i *discordgo.InteractionCreate, ctx *FlowContext) error {
			id, _ := ctx.State[scheduleIDKey].(string)
			err := store.Delete(context.Background(), id)
			if errors.Is(err, repository.ErrScheduleNotFound) {
				return &UserError{Message: "That schedule no longer exists."}
			}
			if err != nil {
				return fmt.Errorf("failed to delete schedule %s: %w", id, err)
			}
			return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: "Schedule deleted.",
				},
			})
		},
	}

	selectNode := &Node{
		ID:      "select",
		Matcher: isComponent(presenters.ComponentIDScheduleSelect),
		Handler: func(s DiscordSession, i *discordgo.InteractionCreate, ctx *FlowContext) error {
			values := i.MessageComponentData().Values
			if len(values) == 0 {
				return &UserError{Message: "Select a schedule."}
			}
			sched, err := store.Get(context.Background(), values[0])
			if errors.Is(err, repository.ErrScheduleNotFound) {
				return &UserError{Message: "That schedule no longer exists."}
			}
			if err != nil {
				return fmt.Errorf("failed to get schedule %s: %w", values[0], err)
			}

			runs, err := sched.UpcomingRuns(opts.Now(), opts.Preview)
			if err != nil {
				return fmt.Errorf("failed to compute upcoming runs: %w", err)
			}

			ctx.State[scheduleIDKey] = sched.ID
			return s.InteractionRespond(i.Interaction, presenters.ScheduleDetailsResponse(sched, runs, ctx.InstanceID))
		},
		Next: []*Node{deleteNode},
	}

	return &Flow{
		ID: "list",
		Root: &Node{
			ID:      "list",
			Matcher: isSubcommand("list"),
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, ctx *FlowContext) error {
				if store == nil {
					return errSavingDisabled
				}
				schedules, err := store.List(context.Background())
				if err != nil {
					return fmt.Errorf("failed to list schedules: %w", err)
				}
				return s.InteractionRespond(i.Interaction, presenters.BuildListSchedulesResponse(schedules, ctx.InstanceID))
			},
			Next: []*Node{selectNode},
		},
	}
}
