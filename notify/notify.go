// Package notify delivers announcements and replies, falling back to another
// target when the first one cannot be reached.
package notify

import (
	"context"
	"fmt"
	"strings"

	"ewintr.nl/radiobot/model"
	"golang.org/x/exp/slog"
)

const addedColor = 0x2ecc71

type Notifier struct {
	platform    Platform
	playlistURL string
	logger      *slog.Logger
}

func NewNotifier(platform Platform, playlistURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		platform:    platform,
		playlistURL: playlistURL,
		logger:      logger,
	}
}

// Announce posts a public message about an added video. Any failure on the
// preferred target moves delivery to fallback. A fallback that fails because
// of an expired interaction is given up silently.
func (n *Notifier) Announce(ctx context.Context, video model.Video, attribution string, preferred, fallback Target) error {
	msg := Announcement(video, attribution, n.playlistURL)

	var err error
	if preferred != nil {
		if err = preferred.deliver(ctx, n.platform, msg); err == nil {
			return nil
		}
		n.logger.Warn("failed to post announcement, trying fallback",
			slog.String("target", preferred.String()),
			slog.String("video", string(video.ID)),
			slog.String("error", err.Error()),
		)
	}
	if fallback == nil {
		return err
	}

	if err := fallback.deliver(ctx, n.platform, msg); err != nil {
		if Classify(err) == Stale {
			n.logger.Debug("fallback announcement hit expired interaction, suppressing", slog.String("video", string(video.ID)))
			return nil
		}
		return fmt.Errorf("could not announce %s: %w", video.ID, err)
	}

	return nil
}

// Reply sends msg to target. Only an expired interaction moves delivery to
// fallback, and a failing fallback is then given up silently.
func (n *Notifier) Reply(ctx context.Context, target, fallback Target, msg Message) error {
	err := target.deliver(ctx, n.platform, msg)
	if err == nil {
		return nil
	}
	if Classify(err) != Stale {
		return err
	}

	n.logger.Debug("interaction expired, falling back", slog.String("target", target.String()))
	if fallback == nil {
		return nil
	}
	if err := fallback.deliver(ctx, n.platform, msg); err != nil {
		n.logger.Debug("fallback after expired interaction failed", slog.String("target", fallback.String()), slog.String("error", err.Error()))
	}

	return nil
}

// AddedLine is the one line summary of an added video.
func AddedLine(video model.Video) string {
	return fmt.Sprintf("Added: %s — %s (%s)", video.DisplayTitle(), video.ChannelTitle, model.FormatDuration(video.Duration))
}

func Announcement(video model.Video, attribution, playlistURL string) Message {
	lines := []string{}
	if attribution != "" {
		lines = append(lines, attribution)
	}
	lines = append(lines, AddedLine(video))
	if playlistURL != "" {
		lines = append(lines, "Playlist: "+playlistURL)
	}

	return Message{
		Content: strings.Join(lines, "\n"),
		Embed: &Embed{
			Title:     video.DisplayTitle(),
			URL:       video.URL,
			Author:    video.ChannelTitle,
			Thumbnail: video.ThumbnailURL,
			Color:     addedColor,
			Fields: []Field{
				{Name: "Duration", Value: model.FormatDuration(video.Duration), Inline: true},
			},
		},
	}
}
