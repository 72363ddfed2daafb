package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/util"
)

var timeOption = &discordgo.ApplicationCommandOption{
	Name:        "time",
	Type:        discordgo.ApplicationCommandOptionString,
	Description: "Time of day to fire, e.g. 09:30:00.",
	Required:    true,
}

var generateOptions = []*discordgo.ApplicationCommandOption{
	{
		Name:        "start",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "First day of the range, e.g. 2023-12-14.",
		Required:    true,
	},
	{
		Name:        "end",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "Last day of the range, inclusive.",
		Required:    true,
	},
	timeOption,
	{
		Name:        "name",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "Save the schedule under this name.",
		Required:    false,
	},
}

// Commands is a list of all the commands the bot can handle.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Check that the bot is alive",
	},
	{
		Name:        "cronspan",
		Description: "Turn date ranges into cron expressions",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "generate",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Fire once a day between two dates",
				Options:     generateOptions,
			},
			{
				Name:        "daily",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Fire every day with no end",
				Options:     []*discordgo.ApplicationCommandOption{timeOption},
			},
			{
				Name:        "list",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "List saved schedules",
			},
		},
	},
}

func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}

type GenerateRequest struct {
	Start string
	End   string
	At    string
	Name  string
}

type DailyRequest struct {
	At string
}

func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	return util.FindFirst(options, func(o *discordgo.ApplicationCommandInteractionDataOption) bool {
		return o.Name == name
	})
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string, required bool) (string, error) {
	option, ok := findOption(options, name)
	if !ok {
		if required {
			return "", &UserError{Message: fmt.Sprintf("The %s option is required.", name)}
		}
		return "", nil
	}
	if option.Type != discordgo.ApplicationCommandOptionString {
		return "", fmt.Errorf("invalid type for %s option", name)
	}
	value := option.StringValue()
	if value == "" && required {
		return "", &UserError{Message: fmt.Sprintf("The %s option is required.", name)}
	}
	return value, nil
}

func CommandToGenerateRequest(options []*discordgo.ApplicationCommandInteractionDataOption) (*GenerateRequest, error) {
	start, err := stringOption(options, "start", true)
	if err != nil {
		return nil, err
	}
	end, err := stringOption(options, "end", true)
	if err != nil {
		return nil, err
	}
	at, err := stringOption(options, "time", true)
	if err != nil {
		return nil, err
	}
	name, err := stringOption(options, "name", false)
	if err != nil {
		return nil, err
	}

	return &GenerateRequest{
		Start: start,
		End:   end,
		At:    at,
		Name:  name,
	}, nil
}

func CommandToDailyRequest(options []*discordgo.ApplicationCommandInteractionDataOption) (*DailyRequest, error) {
	at, err := stringOption(options, "time", true)
	if err != nil {
		return nil, err
	}
	return &DailyRequest{At: at}, nil
}

// subcommand returns the cronspan subcommand an interaction invokes, if any.
func subcommand(i *discordgo.InteractionCreate) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	data := i.ApplicationCommandData()
	if data.Name != "cronspan" || len(data.Options) == 0 {
		return nil, false
	}
	return data.Options[0], true
}

func isSubcommand(name string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		sub, ok := subcommand(i)
		return ok && sub.Name == name
	}
}
