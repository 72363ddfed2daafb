package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/schedule"
)

// Executor does whatever a schedule run is for.
type Executor interface {
	Execute(ctx context.Context, job ScheduleRunJob) error
}

type LogExecutor struct{}

func (LogExecutor) Execute(ctx context.Context, job ScheduleRunJob) error {
	slog.InfoContext(ctx, "Schedule fired", job.LogAttrs()...)
	return nil
}

var _ Executor = LogExecutor{}

type ChannelMessenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ ChannelMessenger = (*discordgo.Session)(nil)

// DiscordNotifier announces each run in a text channel.
type DiscordNotifier struct {
	session   ChannelMessenger
	channelID string
}

func NewDiscordNotifier(session ChannelMessenger, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

func (n *DiscordNotifier) Execute(ctx context.Context, job ScheduleRunJob) error {
	content := fmt.Sprintf("**%s** fired at %s", job.Name, job.RunTime.Format("2006-01-02 15:04:05 MST"))
	if _, err := n.session.ChannelMessageSend(n.channelID, content); err != nil {
		return fmt.Errorf("failed to notify channel %s: %w", n.channelID, err)
	}
	return nil
}

var _ Executor = (*DiscordNotifier)(nil)

// ScheduleJobs executes each job at its run time unless its schedule has
// been paused by then.
func ScheduleJobs(ctx context.Context, jobs []ScheduleRunJob, pauses PauseChecker, executor Executor) {
	for _, job := range jobs {
		slog.DebugContext(ctx, "Scheduling run", job.LogAttrs()...)
		schedule.RunAt(ctx, job.RunTime, func(ctx context.Context) {
			paused, err := pauses.IsPaused(ctx, job.ScheduleID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to check pause state", append(job.LogAttrs(), slog.Any("error", err))...)
				return
			}
			if paused {
				slog.InfoContext(ctx, "skipping paused schedule", job.LogAttrs()...)
				return
			}
			if err := executor.Execute(ctx, job); err != nil {
				slog.ErrorContext(ctx, "failed to execute scheduled run", append(job.LogAttrs(), slog.Any("error", err))...)
			}
		})
	}
}
