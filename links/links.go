// Package links finds YouTube video ids in free form chat text.
package links

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"ewintr.nl/radiobot/model"
)

var (
	idPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	commaPattern = regexp.MustCompile(`,\s*`)
	schemeURL    = regexp.MustCompile(`https?://[^\s<>]+`)
	barePattern  = regexp.MustCompile(`(?i)(?:www\.)?(?:youtube\.com|youtu\.be)/[^\s<>]+`)

	pathPrefixes = []string{"/shorts/", "/embed/", "/v/", "/live/"}
)

// Extract returns the video ids found in text, in order of first appearance
// and without repetitions. Links that do not carry a valid id are skipped.
func Extract(text string) []model.VideoID {
	normalized := commaPattern.ReplaceAllString(text, " ")

	seen := map[model.VideoID]bool{}
	ids := []model.VideoID{}
	for _, cand := range candidates(normalized) {
		raw := strings.TrimRight(cand, ")],.>\n\r\t ")
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		id, ok := videoID(raw)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids
}

// candidates lists absolute links and scheme-less youtube links by position.
// A scheme-less match inside an absolute link is part of that link.
func candidates(text string) []string {
	spans := schemeURL.FindAllStringIndex(text, -1)
	for _, bare := range barePattern.FindAllStringIndex(text, -1) {
		inside := false
		for _, abs := range spans {
			if bare[0] >= abs[0] && bare[0] < abs[1] {
				inside = true
				break
			}
		}
		if !inside {
			spans = append(spans, bare)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	res := make([]string, 0, len(spans))
	for _, span := range spans {
		res = append(res, text[span[0]:span[1]])
	}
	return res
}

func videoID(raw string) (model.VideoID, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case host == "youtu.be" || strings.HasSuffix(host, ".youtu.be"):
		return valid(strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0])
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
	default:
		return "", false
	}

	if u.Path == "/watch" {
		return valid(u.Query().Get("v"))
	}
	for _, prefix := range pathPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return valid(strings.SplitN(u.Path[len(prefix):], "/", 2)[0])
		}
	}

	return valid(u.Query().Get("v"))
}

func valid(id string) (model.VideoID, bool) {
	if !idPattern.MatchString(id) {
		return "", false
	}
	return model.VideoID(id), true
}

func WatchURL(id model.VideoID) string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

func ShortURL(id model.VideoID) string {
	return "https://youtu.be/" + string(id)
}

// Render writes ids back as whitespace separated short links.
func Render(ids []model.VideoID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, ShortURL(id))
	}
	return strings.Join(parts, " ")
}
