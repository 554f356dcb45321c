package model

import (
	"fmt"
	"time"
)

type VideoID string

type PlaylistID string

type Video struct {
	ID           VideoID
	Title        string
	ChannelTitle string
	Duration     time.Duration
	URL          string
	ThumbnailURL string
}

// DisplayTitle falls back to the id for videos without a title.
func (v Video) DisplayTitle() string {
	if v.Title == "" {
		return string(v.ID)
	}
	return v.Title
}

// FormatDuration renders d as H:MM:SS from one hour up, M:SS below.
func FormatDuration(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	h, rem := total/3600, total%3600
	m, s := rem/60, rem%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
