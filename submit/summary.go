package submit

import (
	"fmt"
	"strings"
	"time"

	"ewintr.nl/radiobot/model"
)

// Summary renders outcomes grouped by kind, keeping input order within each
// group.
func Summary(outcomes []model.Outcome, maxDuration time.Duration) string {
	groups := map[model.OutcomeKind][]string{}
	for _, o := range outcomes {
		var line string
		switch o.Kind {
		case model.OutcomeAdded, model.OutcomeTooLong:
			line = fmt.Sprintf("- %s (`%s`)", o.Title, o.VideoID)
		case model.OutcomeDuplicate:
			line = fmt.Sprintf("- `%s`", o.VideoID)
		case model.OutcomeFailed:
			line = fmt.Sprintf("- `%s`: %s", o.VideoID, o.Detail())
		}
		groups[o.Kind] = append(groups[o.Kind], line)
	}

	sections := []string{}
	for _, g := range []struct {
		kind   model.OutcomeKind
		header string
	}{
		{kind: model.OutcomeAdded, header: "Added to the playlist ✅"},
		{kind: model.OutcomeDuplicate, header: "Already in the playlist 🔁"},
		{kind: model.OutcomeTooLong, header: fmt.Sprintf("Longer than %s, not added ⏱️", limit(maxDuration))},
		{kind: model.OutcomeFailed, header: "Couldn't add ❌"},
	} {
		if len(groups[g.kind]) == 0 {
			continue
		}
		sections = append(sections, g.header+":\n"+strings.Join(groups[g.kind], "\n"))
	}

	return strings.Join(sections, "\n")
}

// TooLongNotice explains the duration limit.
func TooLongNotice(maxDuration time.Duration) string {
	return fmt.Sprintf("Videos longer than %s are not allowed on the playlist.", limit(maxDuration))
}

func limit(d time.Duration) string {
	if d%time.Minute == 0 {
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
