package submit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ewintr.nl/radiobot/model"
)

// ErrNoLinks means the submitted text holds no usable video link.
var ErrNoLinks = errors.New("no valid YouTube video URL found")

// CooldownError rejects a whole batch because the user submitted too
// recently.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, %d seconds remaining", e.Seconds())
}

// Seconds is the remaining wait rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// AbortError stops a batch halfway. Completed holds the outcomes produced
// before the abort.
type AbortError struct {
	Err       error
	Completed []model.Outcome
}

func (e *AbortError) Error() string {
	return e.Err.Error()
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Added lists the completed outcomes that added a video.
func (e *AbortError) Added() []model.Outcome {
	res := []model.Outcome{}
	for _, o := range e.Completed {
		if o.Kind == model.OutcomeAdded {
			res = append(res, o)
		}
	}
	return res
}
