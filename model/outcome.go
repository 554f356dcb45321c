package model

type OutcomeKind string

const (
	OutcomeAdded     OutcomeKind = "added"
	OutcomeDuplicate OutcomeKind = "duplicate"
	OutcomeTooLong   OutcomeKind = "too_long"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the result for one video of a submission batch.
type Outcome struct {
	Kind    OutcomeKind
	VideoID VideoID
	Title   string
	Err     error
}

func Added(video Video) Outcome {
	return Outcome{Kind: OutcomeAdded, VideoID: video.ID, Title: video.DisplayTitle()}
}

func Duplicate(id VideoID) Outcome {
	return Outcome{Kind: OutcomeDuplicate, VideoID: id}
}

func TooLong(video Video) Outcome {
	return Outcome{Kind: OutcomeTooLong, VideoID: video.ID, Title: video.DisplayTitle()}
}

func Failed(id VideoID, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, VideoID: id, Err: err}
}

// Detail is the human readable error summary of a failed outcome.
func (o Outcome) Detail() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
