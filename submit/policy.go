package submit

import (
	"context"
	"fmt"
	"time"

	"ewintr.nl/radiobot/catalog"
	"ewintr.nl/radiobot/model"
	"ewintr.nl/radiobot/retry"
)

const DefaultMaxDuration = 10 * time.Minute

type Decision int

const (
	Admitted Decision = iota
	Duplicate
	TooLong
)

func (d Decision) String() string {
	switch d {
	case Duplicate:
		return "duplicate"
	case TooLong:
		return "too long"
	default:
		return "admitted"
	}
}

// Policy decides whether a video may be added to the playlist.
type Policy struct {
	catalog     catalog.Catalog
	exec        *retry.Executor
	maxDuration time.Duration
}

func NewPolicy(cat catalog.Catalog, exec *retry.Executor, maxDuration time.Duration) *Policy {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Policy{
		catalog:     cat,
		exec:        exec,
		maxDuration: maxDuration,
	}
}

func (p *Policy) MaxDuration() time.Duration {
	return p.maxDuration
}

// Admit checks playlist membership first and the video duration second. The
// video is only filled in for TooLong and Admitted.
func (p *Policy) Admit(ctx context.Context, playlist model.PlaylistID, id model.VideoID) (Decision, model.Video, error) {
	exists, err := p.inPlaylist(ctx, playlist, id)
	if err != nil {
		return Admitted, model.Video{}, err
	}
	if exists {
		return Duplicate, model.Video{}, nil
	}

	video, err := retry.Do(ctx, p.exec, "fetch video", func(ctx context.Context) (model.Video, error) {
		return p.catalog.FetchVideo(ctx, id)
	}, catalog.IsPermanent)
	if err != nil {
		return Admitted, model.Video{}, err
	}
	if video.Duration > p.maxDuration {
		return TooLong, video, nil
	}

	return Admitted, video, nil
}

func (p *Policy) inPlaylist(ctx context.Context, playlist model.PlaylistID, id model.VideoID) (bool, error) {
	token := ""
	for {
		page, err := retry.Do(ctx, p.exec, "list playlist", func(ctx context.Context) (catalog.Page, error) {
			return p.catalog.ListMembership(ctx, playlist, token)
		}, catalog.IsPermanent)
		if err != nil {
			return false, fmt.Errorf("could not check playlist: %w", err)
		}

		for _, member := range page.VideoIDs {
			if member == id {
				return true, nil
			}
		}
		if page.NextPageToken == "" {
			return false, nil
		}
		token = page.NextPageToken
	}
}
