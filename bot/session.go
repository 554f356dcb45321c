// Package bot connects the submission flow to Discord: the keyword listener
// and the /addradio slash command.
package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"ewintr.nl/radiobot/notify"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/slog"
)

type Session struct {
	dg      *discordgo.Session
	guildID string
	scan    bool
	ready   atomic.Bool
	logger  *slog.Logger
}

// NewSession prepares a gateway connection. Reading message content is only
// requested when scan is set.
func NewSession(token, guildID string, scan bool, logger *slog.Logger) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages
	if scan {
		dg.Identify.Intents |= discordgo.IntentMessageContent
	}

	return &Session{
		dg:      dg,
		guildID: guildID,
		scan:    scan,
		logger:  logger,
	}, nil
}

func (s *Session) Ready() bool {
	return s.ready.Load()
}

// Open connects to the gateway and routes events to h. Every event is handled
// in its own goroutine with ctx.
func (s *Session) Open(ctx context.Context, h *Handler) error {
	s.dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		s.ready.Store(true)
		s.logger.Info("logged in", slog.String("user", r.User.String()))
		s.registerCommands(ctx, r.User.ID)
	})
	s.dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		s.ready.Store(false)
		s.logger.Warn("disconnected from gateway")
	})
	s.dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		s.ready.Store(true)
	})
	if s.scan {
		s.dg.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			h.HandleMessage(ctx, messageFrom(m))
		})
	}
	s.dg.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		in, ok := interactionFrom(i)
		if !ok {
			return
		}
		h.HandleCommand(ctx, in)
	})

	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}

	return nil
}

func (s *Session) Close() error {
	s.ready.Store(false)
	return s.dg.Close()
}

func (s *Session) registerCommands(ctx context.Context, appID string) {
	commands := []*discordgo.ApplicationCommand{{
		Name:        CommandName,
		Description: "Add a YouTube video to the playlist",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        CommandOption,
			Description: "YouTube URL",
			Required:    true,
		}},
	}}
	if _, err := s.dg.ApplicationCommandBulkOverwrite(appID, s.guildID, commands, discordgo.WithContext(ctx)); err != nil {
		s.logger.Error("could not register slash commands", slog.String("error", err.Error()))
		return
	}
	scope := "global"
	if s.guildID != "" {
		scope = "guild " + s.guildID
	}
	s.logger.Info("registered slash commands", slog.String("scope", scope))
}

func (s *Session) SendChannel(ctx context.Context, channelID string, msg notify.Message) error {
	_, err := s.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: msg.Content,
		Embeds:  embeds(msg.Embed),
	}, discordgo.WithContext(ctx))
	return err
}

func (s *Session) SendFollowup(ctx context.Context, target notify.InteractionTarget, msg notify.Message) error {
	params := &discordgo.WebhookParams{
		Content: msg.Content,
		Embeds:  embeds(msg.Embed),
	}
	if msg.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := s.dg.FollowupMessageCreate(&discordgo.Interaction{AppID: target.AppID, Token: target.Token}, true, params, discordgo.WithContext(ctx))
	return err
}

func (s *Session) React(ctx context.Context, channelID, messageID, emoji string) error {
	return s.dg.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (s *Session) Reply(ctx context.Context, channelID, messageID, content string) error {
	_, err := s.dg.ChannelMessageSendReply(channelID, content, &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
	}, discordgo.WithContext(ctx))
	return err
}

func (s *Session) Respond(ctx context.Context, in Interaction, content string) error {
	return s.dg.InteractionRespond(raw(in), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func (s *Session) Defer(ctx context.Context, in Interaction) error {
	return s.dg.InteractionRespond(raw(in), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func raw(in Interaction) *discordgo.Interaction {
	return &discordgo.Interaction{ID: in.ID, AppID: in.AppID, Token: in.Token}
}

func embeds(e *notify.Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	me := &discordgo.MessageEmbed{
		Title: e.Title,
		URL:   e.URL,
		Color: e.Color,
	}
	if e.Author != "" {
		me.Author = &discordgo.MessageEmbedAuthor{Name: e.Author}
	}
	if e.Thumbnail != "" {
		me.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	for _, f := range e.Fields {
		me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return []*discordgo.MessageEmbed{me}
}

func messageFrom(m *discordgo.MessageCreate) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.FromBot = m.Author.Bot
	}
	return msg
}

// interactionFrom only accepts invocations of the slash command.
func interactionFrom(i *discordgo.InteractionCreate) (Interaction, bool) {
	if i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return Interaction{}, false
	}
	data := i.ApplicationCommandData()
	if data.Name != CommandName {
		return Interaction{}, false
	}

	in := Interaction{
		ID:        i.ID,
		AppID:     i.AppID,
		Token:     i.Token,
		ChannelID: i.ChannelID,
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		in.UserID = i.Member.User.ID
	case i.User != nil:
		in.UserID = i.User.ID
	}
	for _, opt := range data.Options {
		if opt.Name == CommandOption && opt.Type == discordgo.ApplicationCommandOptionString {
			in.Text = opt.StringValue()
		}
	}
	return in, true
}
