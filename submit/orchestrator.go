// Package submit runs a batch of shared links through the admission policy
// and into the playlist.
package submit

import (
	"context"
	"errors"
	"time"

	"ewintr.nl/radiobot/catalog"
	"ewintr.nl/radiobot/cooldown"
	"ewintr.nl/radiobot/links"
	"ewintr.nl/radiobot/metrics"
	"ewintr.nl/radiobot/model"
	"ewintr.nl/radiobot/notify"
	"ewintr.nl/radiobot/retry"
	"ewintr.nl/radiobot/storage"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type Source string

const (
	SourceCommand Source = "command"
	SourceMessage Source = "message"
	SourceFeed    Source = "feed"
)

// Observer is told about every outcome as soon as it is known.
type Observer func(ctx context.Context, outcome model.Outcome)

type Announcer interface {
	Announce(ctx context.Context, video model.Video, attribution string, preferred, fallback notify.Target) error
}

type Request struct {
	Text   string
	UserID string
	Source Source
	// Cooldown enables the per user rate limit for this request.
	Cooldown    bool
	Attribution string
	Announce    notify.Target
	Fallback    notify.Target
	Observer    Observer
}

type Orchestrator struct {
	policy    *Policy
	catalog   catalog.Catalog
	exec      *retry.Executor
	cooldown  *cooldown.Tracker
	announcer Announcer
	repo      storage.SubmissionRepository
	playlist  model.PlaylistID
	logger    *slog.Logger
}

func NewOrchestrator(policy *Policy, cat catalog.Catalog, exec *retry.Executor, tracker *cooldown.Tracker, announcer Announcer, repo storage.SubmissionRepository, playlist model.PlaylistID, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		policy:    policy,
		catalog:   cat,
		exec:      exec,
		cooldown:  tracker,
		announcer: announcer,
		repo:      repo,
		playlist:  playlist,
		logger:    logger,
	}
}

func (o *Orchestrator) Policy() *Policy {
	return o.policy
}

// Submit processes all videos linked in req.Text, in order, and returns one
// outcome per video. Batches without links and batches inside the user's
// cooldown are rejected before any remote call. A cooldown starts as soon as
// a batch is accepted, whatever its outcomes. Expired credentials abort the
// batch with an *AbortError.
func (o *Orchestrator) Submit(ctx context.Context, req Request) ([]model.Outcome, error) {
	ids := links.Extract(req.Text)
	if len(ids) == 0 {
		metrics.BatchesRejectedTotal.WithLabelValues("no_links").Inc()
		return nil, ErrNoLinks
	}

	if req.Cooldown {
		if remaining := o.cooldown.Remaining(req.UserID); remaining > 0 {
			metrics.BatchesRejectedTotal.WithLabelValues("cooldown").Inc()
			return nil, &CooldownError{Remaining: remaining}
		}
		o.cooldown.Mark(req.UserID)
	}

	batch := uuid.New()
	logger := o.logger.With(
		slog.String("batch", batch.String()),
		slog.String("source", string(req.Source)),
		slog.String("user", req.UserID),
	)
	logger.Info("processing submission", slog.Int("videos", len(ids)))

	outcomes := make([]model.Outcome, 0, len(ids))
	for _, id := range ids {
		outcome, err := o.process(ctx, req, id, logger)
		if err != nil {
			logger.Error("aborting submission", slog.String("video", string(id)), slog.String("error", err.Error()))
			metrics.BatchesRejectedTotal.WithLabelValues("aborted").Inc()
			return nil, &AbortError{Err: err, Completed: outcomes}
		}

		outcomes = append(outcomes, outcome)
		metrics.SubmissionOutcomesTotal.WithLabelValues(string(req.Source), string(outcome.Kind)).Inc()
		o.record(ctx, batch, req, outcome, logger)
		if req.Observer != nil {
			req.Observer(ctx, outcome)
		}
	}

	logger.Info("processed submission", slog.Int("videos", len(outcomes)))
	return outcomes, nil
}

// process returns an error only when the whole batch must stop.
func (o *Orchestrator) process(ctx context.Context, req Request, id model.VideoID, logger *slog.Logger) (model.Outcome, error) {
	decision, video, err := o.policy.Admit(ctx, o.playlist, id)
	if err != nil {
		if abort(ctx, err) {
			return model.Outcome{}, err
		}
		logger.Error("could not check video", slog.String("video", string(id)), slog.String("error", err.Error()))
		return model.Failed(id, err), nil
	}

	switch decision {
	case Duplicate:
		logger.Info("video already in playlist", slog.String("video", string(id)))
		return model.Duplicate(id), nil
	case TooLong:
		logger.Info("video too long", slog.String("video", string(id)), slog.Duration("duration", video.Duration))
		return model.TooLong(video), nil
	}

	if _, err := retry.Do(ctx, o.exec, "insert video", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.catalog.Insert(ctx, o.playlist, id)
	}, catalog.IsPermanent); err != nil {
		if abort(ctx, err) {
			return model.Outcome{}, err
		}
		logger.Error("could not add video", slog.String("video", string(id)), slog.String("error", err.Error()))
		return model.Failed(id, err), nil
	}
	logger.Info("added video", slog.String("video", string(id)), slog.String("title", video.Title))

	if err := o.announcer.Announce(ctx, video, req.Attribution, req.Announce, req.Fallback); err != nil {
		logger.Error("could not announce video", slog.String("video", string(id)), slog.String("error", err.Error()))
	}

	return model.Added(video), nil
}

func abort(ctx context.Context, err error) bool {
	return errors.Is(err, catalog.ErrCredentialsExpired) || ctx.Err() != nil
}

func (o *Orchestrator) record(ctx context.Context, batch uuid.UUID, req Request, outcome model.Outcome, logger *slog.Logger) {
	if err := o.repo.Save(ctx, storage.Record{
		ID:        uuid.New(),
		BatchID:   batch,
		Source:    string(req.Source),
		UserID:    req.UserID,
		VideoID:   outcome.VideoID,
		Outcome:   outcome.Kind,
		Title:     outcome.Title,
		Detail:    outcome.Detail(),
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Warn("could not record outcome", slog.String("video", string(outcome.VideoID)), slog.String("error", err.Error()))
	}
}
