package notify

import (
	"context"
	"fmt"
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title     string
	URL       string
	Author    string
	Thumbnail string
	Color     int
	Fields    []Field
}

type Message struct {
	Content   string
	Embed     *Embed
	Ephemeral bool
}

// Platform is the part of the messaging client that delivers messages.
type Platform interface {
	SendChannel(ctx context.Context, channelID string, msg Message) error
	SendFollowup(ctx context.Context, interaction InteractionTarget, msg Message) error
}

// Target is where a message goes: a ChannelTarget or an InteractionTarget.
type Target interface {
	deliver(ctx context.Context, p Platform, msg Message) error
	String() string
}

type ChannelTarget struct {
	ChannelID string
}

func (c ChannelTarget) deliver(ctx context.Context, p Platform, msg Message) error {
	msg.Ephemeral = false
	return p.SendChannel(ctx, c.ChannelID, msg)
}

func (c ChannelTarget) String() string {
	return fmt.Sprintf("channel %s", c.ChannelID)
}

// InteractionTarget answers a slash command through its followup webhook.
type InteractionTarget struct {
	AppID string
	Token string
}

func (i InteractionTarget) deliver(ctx context.Context, p Platform, msg Message) error {
	return p.SendFollowup(ctx, i, msg)
}

func (i InteractionTarget) String() string {
	return "interaction followup"
}
