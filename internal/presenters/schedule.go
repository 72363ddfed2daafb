package presenters

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/repository"
	"github.com/glizzus/cronspan/internal/util"
)

const (
	ComponentIDScheduleSelect = "schedule_select_menu"
	ComponentIDScheduleDelete = "schedule_delete"
)

// CustomID joins a component ID and a flow instance ID.
func CustomID(componentID, instanceID string) string {
	return componentID + ":" + instanceID
}

var noScheduleFoundResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "No schedules found",
	},
}

func formatRuns(runs []time.Time) string {
	if len(runs) == 0 {
		return "_No upcoming runs_"
	}
	var b strings.Builder
	b.WriteString("**Next runs**\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "- %s\n", r.Format("2006-01-02 15:04:05 MST"))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func codeBlock(lines []string) string {
	return "```\n" + strings.Join(lines, "\n") + "\n```"
}

// BuildExpressionResponse shows the fragments of an expression, one per line,
// followed by the upcoming run times.
func BuildExpressionResponse(title string, fragments []string, runs []time.Time) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("**%s**\n%s\n%s", title, codeBlock(fragments), formatRuns(runs)),
		},
	}
}

// BuildDailyResponse shows the unbounded daily fragment for a time-of-day.
func BuildDailyResponse(f cronspan.Fragment) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("**Every day at %s**\n%s", f.At(), codeBlock([]string{f.String()})),
		},
	}
}

// BuildErrorResponse is only visible to the user who ran the command.
func BuildErrorResponse(message string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func scheduleToSelectMenuOption(s repository.Schedule) discordgo.SelectMenuOption {
	return discordgo.SelectMenuOption{
		Label:       s.Name,
		Value:       s.ID,
		Description: fmt.Sprintf("%s to %s at %s", s.Start, s.End, s.At),
	}
}

var scheduleSelectMinValues = 1

// Discord rejects select menus with more options than this.
const maxSelectOptions = 25

func buildScheduleSelectMenu(schedules []repository.Schedule, instanceID string) *discordgo.InteractionResponse {
	if len(schedules) > maxSelectOptions {
		schedules = schedules[:maxSelectOptions]
	}
	options := util.Map(schedules, scheduleToSelectMenuOption)

	menu := discordgo.SelectMenu{
		CustomID:    CustomID(ComponentIDScheduleSelect, instanceID),
		Placeholder: "Select a schedule",
		MinValues:   &scheduleSelectMinValues,
		MaxValues:   1,
		Options:     options,
	}

	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			menu,
		},
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "**Current Schedules** _(select for more details)_",
			Components: []discordgo.MessageComponent{
				row,
			},
		},
	}
}

func BuildListSchedulesResponse(schedules []repository.Schedule, instanceID string) *discordgo.InteractionResponse {
	if len(schedules) == 0 {
		return noScheduleFoundResponse
	}

	return buildScheduleSelectMenu(schedules, instanceID)
}

// ScheduleDetailsResponse shows a stored schedule with a button to delete it.
func ScheduleDetailsResponse(s repository.Schedule, runs []time.Time, instanceID string) *discordgo.InteractionResponse {
	content := fmt.Sprintf(
		"**%s**\n%s to %s at %s (%s)\n%s\n%s",
		s.Name, s.Start, s.End, s.At, s.Timezone,
		codeBlock(s.Fragments()),
		formatRuns(runs),
	)
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Delete",
							Style:    discordgo.DangerButton,
							CustomID: CustomID(ComponentIDScheduleDelete, instanceID),
						},
					},
				},
			},
		},
	}
}
