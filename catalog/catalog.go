// Package catalog talks to the remote playlist service.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"ewintr.nl/radiobot/model"
)

var (
	ErrCredentialsExpired  = errors.New("credentials expired")
	ErrUnavailable         = errors.New("catalog unavailable")
	ErrVideoNotFound       = errors.New("video not found")
	ErrUnsupportedDuration = errors.New("unsupported duration")
	ErrRejected            = errors.New("request rejected")
)

// Page is one page of playlist membership.
type Page struct {
	VideoIDs      []model.VideoID
	NextPageToken string
}

type Catalog interface {
	ListMembership(ctx context.Context, playlist model.PlaylistID, pageToken string) (Page, error)
	FetchVideo(ctx context.Context, id model.VideoID) (model.Video, error)
	Insert(ctx context.Context, playlist model.PlaylistID, id model.VideoID) error
}

// CredentialsError means the stored OAuth credentials can no longer be used
// and a person has to authorize again.
type CredentialsError struct {
	Path string
	Err  error
}

func (e *CredentialsError) Error() string {
	path := e.Path
	if path == "" {
		path = "the credentials file"
	}
	return "Google credentials invalid or expired. Re-auth by running the OAuth helper again, " +
		"for example: docker compose run --rm -e OAUTH_FORCE=1 radiobot\n" +
		"This opens a local URL to complete OAuth and regenerates " + path + "."
}

func (e *CredentialsError) Unwrap() error {
	return e.Err
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrCredentialsExpired
}

// IsPermanent reports whether retrying the call that returned err is useless.
func IsPermanent(err error) bool {
	for _, perm := range []error{ErrCredentialsExpired, ErrUnavailable, ErrVideoNotFound, ErrUnsupportedDuration, ErrRejected} {
		if errors.Is(err, perm) {
			return true
		}
	}
	return false
}

// Unavailable is the catalog used when no working client could be set up.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err() error {
	return fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

func (u Unavailable) ListMembership(context.Context, model.PlaylistID, string) (Page, error) {
	return Page{}, u.err()
}

func (u Unavailable) FetchVideo(context.Context, model.VideoID) (model.Video, error) {
	return model.Video{}, u.err()
}

func (u Unavailable) Insert(context.Context, model.PlaylistID, model.VideoID) error {
	return u.err()
}
