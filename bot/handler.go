package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"ewintr.nl/radiobot/catalog"
	"ewintr.nl/radiobot/links"
	"ewintr.nl/radiobot/model"
	"ewintr.nl/radiobot/notify"
	"ewintr.nl/radiobot/submit"
	"golang.org/x/exp/slog"
)

const (
	CommandName   = "addradio"
	CommandOption = "url"

	reactionDuplicate = "🔁"
	reactionTooLong   = "⏱️"
	reactionAdded     = "✅"
	reactionFailed    = "❌"
)

// Chat is the part of the Discord API the handlers use.
type Chat interface {
	notify.Platform
	React(ctx context.Context, channelID, messageID, emoji string) error
	Reply(ctx context.Context, channelID, messageID, content string) error
	Respond(ctx context.Context, interaction Interaction, content string) error
	Defer(ctx context.Context, interaction Interaction) error
}

type Submitter interface {
	Submit(ctx context.Context, req submit.Request) ([]model.Outcome, error)
}

// Message is a message posted in a channel the bot can read.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	FromBot   bool
	Content   string
}

// Interaction is an invocation of the slash command.
type Interaction struct {
	ID        string
	AppID     string
	Token     string
	ChannelID string
	UserID    string
	Text      string
}

func (i Interaction) followup() notify.InteractionTarget {
	return notify.InteractionTarget{AppID: i.AppID, Token: i.Token}
}

type Settings struct {
	ChannelID   string
	Keyword     string
	MaxDuration time.Duration
}

type Handler struct {
	chat      Chat
	submitter Submitter
	notifier  *notify.Notifier
	settings  Settings
	logger    *slog.Logger
}

func NewHandler(chat Chat, submitter Submitter, notifier *notify.Notifier, settings Settings, logger *slog.Logger) *Handler {
	settings.Keyword = strings.ToLower(settings.Keyword)
	if settings.MaxDuration <= 0 {
		settings.MaxDuration = submit.DefaultMaxDuration
	}
	return &Handler{
		chat:      chat,
		submitter: submitter,
		notifier:  notifier,
		settings:  settings,
		logger:    logger,
	}
}

// HandleMessage adds the videos linked in a keyword message on the configured
// channel and reacts to the message once per video.
func (h *Handler) HandleMessage(ctx context.Context, m Message) {
	if m.FromBot || h.settings.ChannelID == "" || m.ChannelID != h.settings.ChannelID {
		return
	}
	if !strings.Contains(strings.ToLower(m.Content), h.settings.Keyword) {
		return
	}
	if len(links.Extract(m.Content)) == 0 {
		return
	}

	logger := h.logger.With(slog.String("message", m.ID), slog.String("user", m.AuthorID))
	defer h.recoverMessage(ctx, m, logger)

	_, err := h.submitter.Submit(ctx, submit.Request{
		Text:     m.Content,
		UserID:   m.AuthorID,
		Source:   submit.SourceMessage,
		Announce: notify.ChannelTarget{ChannelID: m.ChannelID},
		Observer: func(ctx context.Context, o model.Outcome) {
			h.react(ctx, m, o, logger)
		},
	})
	switch {
	case err == nil, errors.Is(err, submit.ErrNoLinks):
		return
	case errors.Is(err, catalog.ErrCredentialsExpired):
		h.reactAndReply(ctx, m, reactionFailed, credentialsMessage(err), logger)
	default:
		logger.Error("could not process message", slog.String("error", err.Error()))
		h.reactAndReply(ctx, m, reactionFailed, fmt.Sprintf("Couldn't add videos: %s", err), logger)
	}
}

func (h *Handler) react(ctx context.Context, m Message, o model.Outcome, logger *slog.Logger) {
	switch o.Kind {
	case model.OutcomeDuplicate:
		h.reactAndReply(ctx, m, reactionDuplicate, "", logger)
	case model.OutcomeTooLong:
		h.reactAndReply(ctx, m, reactionTooLong, submit.TooLongNotice(h.settings.MaxDuration), logger)
	case model.OutcomeAdded:
		h.reactAndReply(ctx, m, reactionAdded, "", logger)
	case model.OutcomeFailed:
		h.reactAndReply(ctx, m, reactionFailed, fmt.Sprintf("Couldn't add `%s`: %s", o.VideoID, o.Detail()), logger)
	}
}

func (h *Handler) reactAndReply(ctx context.Context, m Message, emoji, reply string, logger *slog.Logger) {
	if err := h.chat.React(ctx, m.ChannelID, m.ID, emoji); err != nil {
		logger.Warn("could not react", slog.String("emoji", emoji), slog.String("error", err.Error()))
	}
	if reply == "" {
		return
	}
	if err := h.chat.Reply(ctx, m.ChannelID, m.ID, reply); err != nil {
		logger.Warn("could not reply", slog.String("error", err.Error()))
	}
}

// HandleCommand runs the slash command. The user always gets one private
// answer: a summary of the outcomes or the reason nothing was done.
func (h *Handler) HandleCommand(ctx context.Context, in Interaction) {
	logger := h.logger.With(slog.String("interaction", in.ID), slog.String("user", in.UserID))

	if h.settings.ChannelID != "" && in.ChannelID != h.settings.ChannelID {
		if err := h.chat.Respond(ctx, in, fmt.Sprintf("Please use this command in <#%s>.", h.settings.ChannelID)); err != nil {
			logger.Warn("could not redirect command", slog.String("error", err.Error()))
		}
		return
	}

	if err := h.chat.Defer(ctx, in); err != nil {
		logger.Warn("could not defer command", slog.String("kind", notify.Classify(err).String()), slog.String("error", err.Error()))
	}

	channel := notify.ChannelTarget{ChannelID: in.ChannelID}
	if channel.ChannelID == "" {
		channel.ChannelID = h.settings.ChannelID
	}
	defer h.recoverCommand(ctx, in, channel, logger)

	outcomes, err := h.submitter.Submit(ctx, submit.Request{
		Text:        in.Text,
		UserID:      in.UserID,
		Source:      submit.SourceCommand,
		Cooldown:    true,
		Attribution: fmt.Sprintf("Added by <@%s>", in.UserID),
		Announce:    channel,
		Fallback:    in.followup(),
	})

	var content string
	if err != nil {
		content = h.commandError(err, logger)
	} else {
		content = submit.Summary(outcomes, h.settings.MaxDuration)
	}
	h.answer(ctx, in, channel, content, logger)
}

func (h *Handler) commandError(err error, logger *slog.Logger) string {
	var cdErr *submit.CooldownError
	var abortErr *submit.AbortError
	switch {
	case errors.Is(err, submit.ErrNoLinks):
		return "No valid YouTube video URL found."
	case errors.As(err, &cdErr):
		return fmt.Sprintf("Please wait %d seconds before using /%s again.", cdErr.Seconds(), CommandName)
	case errors.As(err, &abortErr):
		content := fmt.Sprintf("Couldn't add videos: %s", abortErr.Err)
		if errors.Is(err, catalog.ErrCredentialsExpired) {
			content = credentialsMessage(err)
		}
		if added := abortErr.Added(); len(added) > 0 {
			lines := []string{content, "Added before stopping:"}
			for _, o := range added {
				lines = append(lines, fmt.Sprintf("- %s (`%s`)", o.Title, o.VideoID))
			}
			content = strings.Join(lines, "\n")
		}
		return content
	default:
		logger.Error("could not process command", slog.String("error", err.Error()))
		return fmt.Sprintf("Couldn't add video: %s", err)
	}
}

func (h *Handler) answer(ctx context.Context, in Interaction, channel notify.ChannelTarget, content string, logger *slog.Logger) {
	var fallback notify.Target
	if channel.ChannelID != "" {
		fallback = channel
	}
	if err := h.notifier.Reply(ctx, in.followup(), fallback, notify.Message{Content: content, Ephemeral: true}); err != nil {
		logger.Error("could not answer command", slog.String("error", err.Error()))
	}
}

func (h *Handler) recoverMessage(ctx context.Context, m Message, logger *slog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	logger.Error("message handler panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
	h.reactAndReply(ctx, m, reactionFailed, "Couldn't add videos: internal error", logger)
}

func (h *Handler) recoverCommand(ctx context.Context, in Interaction, channel notify.ChannelTarget, logger *slog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	logger.Error("command handler panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
	h.answer(ctx, in, channel, "Couldn't add video: internal error", logger)
}

// credentialsMessage prefers the re-authentication instructions carried by a
// credentials error over the wrapped text.
func credentialsMessage(err error) string {
	var credErr *catalog.CredentialsError
	if errors.As(err, &credErr) {
		return credErr.Error()
	}
	return err.Error()
}
