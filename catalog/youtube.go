package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ewintr.nl/radiobot/links"
	"ewintr.nl/radiobot/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

const pageSize = 50

type Youtube struct {
	Client    *youtube.Service
	credsPath string
}

func NewYoutube(client *youtube.Service, credsPath string) *Youtube {
	return &Youtube{Client: client, credsPath: credsPath}
}

func (y *Youtube) ListMembership(ctx context.Context, playlist model.PlaylistID, pageToken string) (Page, error) {
	call := y.Client.PlaylistItems.
		List([]string{"contentDetails"}).
		PlaylistId(string(playlist)).
		MaxResults(pageSize)

	if pageToken != "" {
		call.PageToken(pageToken)
	}

	response, err := call.Context(ctx).Do()
	if err != nil {
		return Page{}, y.wrap("checking playlist", err)
	}

	page := Page{
		VideoIDs:      make([]model.VideoID, 0, len(response.Items)),
		NextPageToken: response.NextPageToken,
	}
	for _, item := range response.Items {
		if item.ContentDetails == nil {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, model.VideoID(item.ContentDetails.VideoId))
	}

	return page, nil
}

func (y *Youtube) FetchVideo(ctx context.Context, id model.VideoID) (model.Video, error) {
	call := y.Client.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(string(id))

	response, err := call.Context(ctx).Do()
	if err != nil {
		return model.Video{}, y.wrap("fetching video details", err)
	}
	if len(response.Items) == 0 {
		return model.Video{}, fmt.Errorf("%w: %s has no metadata", ErrVideoNotFound, id)
	}

	item := response.Items[0]
	video := model.Video{
		ID:    id,
		Title: string(id),
		URL:   links.ShortURL(id),
	}
	if item.Snippet != nil {
		if item.Snippet.Title != "" {
			video.Title = item.Snippet.Title
		}
		video.ChannelTitle = item.Snippet.ChannelTitle
		video.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
	}

	duration := "PT0S"
	if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
		duration = item.ContentDetails.Duration
	}
	video.Duration, err = ParseDuration(duration)
	if err != nil {
		return model.Video{}, fmt.Errorf("video %s: %w", id, err)
	}

	return video, nil
}

func (y *Youtube) Insert(ctx context.Context, playlist model.PlaylistID, id model.VideoID) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: string(playlist),
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: string(id),
			},
		},
	}

	if _, err := y.Client.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return y.wrap("adding video", err)
	}

	return nil
}

// wrap sorts API failures into credential problems, permanent rejections and
// everything else, which is worth retrying.
func (y *Youtube) wrap(action string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return &CredentialsError{Path: y.credsPath, Err: err}
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("youtube api error %s: %w", action, err)
		case apiErr.Code >= http.StatusBadRequest:
			return fmt.Errorf("youtube api error %s (%w): %w", action, ErrRejected, err)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) || strings.Contains(err.Error(), "refresh token is not set") {
		return &CredentialsError{Path: y.credsPath, Err: err}
	}

	return fmt.Errorf("youtube api error %s: %w", action, err)
}

func bestThumbnail(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbs.Maxres, thumbs.Standard, thumbs.High, thumbs.Medium, thumbs.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
