package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/worker"
	"github.com/google/go-cmp/cmp"
)

type channelExecutor struct {
	done chan worker.ScheduleRunJob
}

func (e *channelExecutor) Execute(ctx context.Context, job worker.ScheduleRunJob) error {
	e.done <- job
	return nil
}

func TestScheduleJobs(t *testing.T) {
	ctx := t.Context()
	pauses := worker.NewMemoryPauseSet()
	if err := pauses.Pause(ctx, "paused"); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}

	executor := &channelExecutor{done: make(chan worker.ScheduleRunJob, 2)}
	now := time.Now()
	jobs := []worker.ScheduleRunJob{
		{RunID: 1, ScheduleID: "paused", Name: "skipped", RunTime: now.Add(-time.Second)},
		{RunID: 2, ScheduleID: "active", Name: "standup", RunTime: now.Add(20 * time.Millisecond)},
	}
	worker.ScheduleJobs(ctx, jobs, pauses, executor)

	select {
	case job := <-executor.done:
		if job.RunID != 2 {
			t.Errorf("executed run %d; want 2", job.RunID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("active run was not executed")
	}

	select {
	case job := <-executor.done:
		t.Errorf("paused run %d was executed", job.RunID)
	case <-time.After(100 * time.Millisecond):
	}
}

type fakeMessenger struct {
	mu       sync.Mutex
	channels []string
	messages []string
	err      error
}

func (m *fakeMessenger) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channelID)
	m.messages = append(m.messages, content)
	return &discordgo.Message{}, m.err
}

func TestDiscordNotifier(t *testing.T) {
	messenger := &fakeMessenger{}
	notifier := worker.NewDiscordNotifier(messenger, "chan-1")
	job := worker.ScheduleRunJob{RunID: 1, ScheduleID: "s-1", Name: "standup", RunTime: time.Date(2090, 12, 29, 9, 30, 0, 0, time.UTC)}

	if err := notifier.Execute(t.Context(), job); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"**standup** fired at 2090-12-29 09:30:00 UTC"}, messenger.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"chan-1"}, messenger.channels); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}

	messenger.err = errors.New("missing access")
	if err := notifier.Execute(t.Context(), job); err == nil {
		t.Error("Execute expected error when the message fails")
	}
}
