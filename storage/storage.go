package storage

import (
	"context"
	"time"

	"ewintr.nl/radiobot/model"
	"github.com/google/uuid"
)

// Record is one outcome of a submission batch.
type Record struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	Source    string
	UserID    string
	VideoID   model.VideoID
	Outcome   model.OutcomeKind
	Title     string
	Detail    string
	CreatedAt time.Time
}

type SubmissionRepository interface {
	Save(ctx context.Context, record Record) error
}

// Nop drops all records.
type Nop struct{}

func (Nop) Save(context.Context, Record) error {
	return nil
}
