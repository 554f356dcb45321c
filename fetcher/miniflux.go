package fetcher

import (
	"miniflux.app/client"
)

type MinifluxInfo struct {
	Endpoint string
	ApiKey   string
}

type Miniflux struct {
	client *client.Client
}

func NewMiniflux(mflInfo MinifluxInfo) *Miniflux {
	return &Miniflux{
		client: client.New(mflInfo.Endpoint, mflInfo.ApiKey),
	}
}

func (m *Miniflux) Unread() ([]FeedEntry, error) {
	result, err := m.client.Entries(&client.Filter{Status: "unread"})
	if err != nil {
		return []FeedEntry{}, err
	}

	entries := []FeedEntry{}
	for _, entry := range result.Entries {
		entries = append(entries, FeedEntry{
			EntryID: entry.ID,
			FeedID:  entry.FeedID,
			URL:     entry.URL,
			Title:   entry.Title,
		})
	}

	return entries, nil
}

func (m *Miniflux) MarkRead(entryID int64) error {
	if err := m.client.UpdateEntries([]int64{entryID}, "read"); err != nil {
		return err
	}

	return nil
}
