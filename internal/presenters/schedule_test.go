package presenters_test

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/presenters"
	"github.com/glizzus/cronspan/internal/repository"
	"github.com/google/go-cmp/cmp"
)

func TestBuildListSchedulesResponse(t *testing.T) {
	t.Run("No schedules", func(t *testing.T) {
		got := presenters.BuildListSchedulesResponse(nil, "inst")
		want := &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "No schedules found",
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Schedules become select menu options", func(t *testing.T) {
		schedules := []repository.Schedule{
			{
				ID:    "s-1",
				Name:  "standup",
				Start: cronspan.NewDate(2023, time.December, 14),
				End:   cronspan.NewDate(2024, time.January, 3),
				At:    cronspan.TimeOfDay{Hour: 9, Minute: 30},
			},
		}

		got := presenters.BuildListSchedulesResponse(schedules, "inst")
		want := &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "**Current Schedules** _(select for more details)_",
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.SelectMenu{
								CustomID:    "schedule_select_menu:inst",
								Placeholder: "Select a schedule",
								MinValues:   &[]int{1}[0],
								MaxValues:   1,
								Options: []discordgo.SelectMenuOption{
									{
										Label:       "standup",
										Value:       "s-1",
										Description: "2023-12-14 to 2024-01-03 at 09:30:00",
									},
								},
							},
						},
					},
				},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestBuildExpressionResponse(t *testing.T) {
	expr, err := cronspan.DecomposeStrings("2023-12-14", "2024-01-03", "09:30:00")
	if err != nil {
		t.Fatalf("DecomposeStrings returned error: %v", err)
	}

	got := presenters.BuildExpressionResponse("standup", expr.Strings(), nil)
	want := "**standup**\n```\n0 30 9 14-31 12 ? 2023\n0 30 9 1-3 1 ? 2024\n```\n_No upcoming runs_"
	if got.Data.Content != want {
		t.Errorf("content = %q; want %q", got.Data.Content, want)
	}
}

func TestBuildDailyResponse(t *testing.T) {
	got := presenters.BuildDailyResponse(cronspan.Daily(cronspan.TimeOfDay{Hour: 23, Minute: 59, Second: 59}))
	want := "**Every day at 23:59:59**\n```\n59 59 23 * * ? *\n```"
	if got.Data.Content != want {
		t.Errorf("content = %q; want %q", got.Data.Content, want)
	}
}

func TestBuildErrorResponse(t *testing.T) {
	got := presenters.BuildErrorResponse("nope")
	want := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "nope",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleDetailsResponse(t *testing.T) {
	sched := repository.Schedule{
		ID:         "s-1",
		Name:       "standup",
		Start:      cronspan.NewDate(2023, time.December, 14),
		End:        cronspan.NewDate(2024, time.January, 3),
		At:         cronspan.TimeOfDay{Hour: 9, Minute: 30},
		Timezone:   "UTC",
		Expression: "0 30 9 14-31 12 ? 2023,0 30 9 1-3 1 ? 2024",
	}
	runs := []time.Time{time.Date(2023, 12, 14, 9, 30, 0, 0, time.UTC)}

	got := presenters.ScheduleDetailsResponse(sched, runs, "inst")
	wantContent := "**standup**\n2023-12-14 to 2024-01-03 at 09:30:00 (UTC)\n" +
		"```\n0 30 9 14-31 12 ? 2023\n0 30 9 1-3 1 ? 2024\n```\n" +
		"**Next runs**\n- 2023-12-14 09:30:00 UTC"
	if got.Data.Content != wantContent {
		t.Errorf("content = %q; want %q", got.Data.Content, wantContent)
	}

	wantComponents := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Delete",
					Style:    discordgo.DangerButton,
					CustomID: "schedule_delete:inst",
				},
			},
		},
	}
	if diff := cmp.Diff(wantComponents, got.Data.Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildListSchedulesResponseCapsOptions(t *testing.T) {
	var schedules []repository.Schedule
	for range 30 {
		schedules = append(schedules, repository.Schedule{Name: "noise"})
	}

	got := presenters.BuildListSchedulesResponse(schedules, "inst")
	menu := got.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != 25 {
		t.Errorf("select menu has %d options; want 25", len(menu.Options))
	}
}
