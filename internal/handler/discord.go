package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/cronspan/internal/generator"
	"github.com/glizzus/cronspan/internal/presenters"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)

// DiscordSession is the part of *discordgo.Session that flows respond through.
type DiscordSession interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ DiscordSession = (*discordgo.Session)(nil)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID)
}

const internalErrorMessage = "Something went wrong. Please try again later."

// NewInteractionHandler routes interactions to the bot's flows. A nil store
// turns off saving and listing schedules.
func NewInteractionHandler(
	store ScheduleStore,
	opts Options,
	idGenerator generator.Generator[string],
) func(DiscordSession, *discordgo.InteractionCreate) {
	opts = opts.withDefaults()
	if idGenerator == nil {
		idGenerator = &generator.UUIDV7Generator{}
	}

	fm := NewFlowManager(idGenerator)
	fm.RegisterFlow(PingFlow)
	fm.RegisterFlow(GenerateFlow(store, opts, idGenerator))
	fm.RegisterFlow(DailyFlow(opts))
	fm.RegisterFlow(ListFlow(store, opts))

	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		err := fm.Router(s, i)
		if err == nil {
			return
		}

		message := internalErrorMessage
		var userErr *UserError
		if errors.As(err, &userErr) {
			message = userErr.Message
			slog.Debug("Rejected interaction", "error", err)
		} else {
			slog.Error("Failed to handle interaction", "error", err)
		}

		if err := s.InteractionRespond(i.Interaction, presenters.BuildErrorResponse(message)); err != nil {
			slog.Error("Failed to respond with error", "error", err)
		}
	}
}

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate InteractionCreateHandler
}

// Adapt lets a handler written against DiscordSession be registered on a
// real session.
func Adapt(h func(DiscordSession, *discordgo.InteractionCreate)) InteractionCreateHandler {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h(s, i)
	}
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	if handlers.Ready != nil {
		s.AddHandler(handlers.Ready)
	}
	if handlers.InteractionCreate != nil {
		s.AddHandler(handlers.InteractionCreate)
	}

	return s, nil
}
