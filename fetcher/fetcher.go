// Package fetcher submits videos that show up in subscribed feeds.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/radiobot/metrics"
	"ewintr.nl/radiobot/model"
	"ewintr.nl/radiobot/notify"
	"ewintr.nl/radiobot/submit"
	"golang.org/x/exp/slog"
)

type Submitter interface {
	Submit(ctx context.Context, req submit.Request) ([]model.Outcome, error)
}

type Fetcher struct {
	interval   time.Duration
	feedReader FeedReader
	submitter  Submitter
	channelID  string
	logger     *slog.Logger
}

func NewFetch(feedReader FeedReader, interval time.Duration, submitter Submitter, channelID string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		interval:   interval,
		feedReader: feedReader,
		submitter:  submitter,
		channelID:  channelID,
		logger:     logger,
	}
}

// Run reads the feeds every interval until ctx is done.
func (f *Fetcher) Run(ctx context.Context) {
	f.logger.Info("started feed reader", slog.Duration("interval", f.interval))
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("stopped feed reader")
			return
		case <-ticker.C:
			f.ReadFeeds(ctx)
		}
	}
}

// ReadFeeds submits all unread entries. Entries are marked read once they are
// processed. An aborted submission leaves the entry, and all that follow it,
// unread for the next round.
func (f *Fetcher) ReadFeeds(ctx context.Context) {
	entries, err := f.feedReader.Unread()
	if err != nil {
		f.logger.Error("failed to fetch unread entries", slog.String("error", err.Error()))
		return
	}
	f.logger.Info("fetched unread entries", slog.Int("count", len(entries)))

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		logger := f.logger.With(slog.Int64("entry", entry.EntryID), slog.Int64("feed", entry.FeedID))
		req := submit.Request{
			Text:   entry.URL,
			UserID: fmt.Sprintf("feed:%d", entry.FeedID),
			Source: submit.SourceFeed,
		}
		if f.channelID != "" {
			req.Announce = notify.ChannelTarget{ChannelID: f.channelID}
		}

		result := "submitted"
		_, err := f.submitter.Submit(ctx, req)
		var abortErr *submit.AbortError
		switch {
		case errors.As(err, &abortErr):
			metrics.FeedEntriesTotal.WithLabelValues("aborted").Inc()
			logger.Error("submission aborted, leaving entry unread", slog.String("error", err.Error()))
			return
		case errors.Is(err, submit.ErrNoLinks):
			result = "skipped"
			logger.Info("entry has no video link", slog.String("title", entry.Title))
		case err != nil:
			metrics.FeedEntriesTotal.WithLabelValues("failed").Inc()
			logger.Error("failed to submit entry", slog.String("error", err.Error()))
			continue
		}

		if err := f.feedReader.MarkRead(entry.EntryID); err != nil {
			logger.Error("failed to mark entry as read", slog.String("error", err.Error()))
		}
		metrics.FeedEntriesTotal.WithLabelValues(result).Inc()
	}
}
