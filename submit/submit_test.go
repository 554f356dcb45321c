package submit_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ewintr.nl/radiobot/catalog"
	"ewintr.nl/radiobot/cooldown"
	"ewintr.nl/radiobot/model"
	"ewintr.nl/radiobot/notify"
	"ewintr.nl/radiobot/retry"
	"ewintr.nl/radiobot/storage"
	"ewintr.nl/radiobot/submit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const playlist = model.PlaylistID("PL1")

type fakeCatalog struct {
	mu         sync.Mutex
	pages      map[string]catalog.Page
	videos     map[model.VideoID]model.Video
	listErr    error
	fetchErr   error
	insertErrs []error
	listCalls  []string
	fetchCalls []model.VideoID
	inserted   []model.VideoID
	insertRuns int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		pages:  map[string]catalog.Page{"": {}},
		videos: map[model.VideoID]model.Video{},
	}
}

func (f *fakeCatalog) addVideo(id model.VideoID, title string, d time.Duration) {
	f.videos[id] = model.Video{ID: id, Title: title, ChannelTitle: "Band", Duration: d, URL: "https://youtu.be/" + string(id)}
}

func (f *fakeCatalog) ListMembership(_ context.Context, pl model.PlaylistID, token string) (catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, token)
	if f.listErr != nil {
		return catalog.Page{}, f.listErr
	}
	return f.pages[token], nil
}

func (f *fakeCatalog) FetchVideo(_ context.Context, id model.VideoID) (model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, id)
	if f.fetchErr != nil {
		return model.Video{}, f.fetchErr
	}
	video, ok := f.videos[id]
	if !ok {
		return model.Video{}, catalog.ErrVideoNotFound
	}
	return video, nil
}

func (f *fakeCatalog) Insert(_ context.Context, pl model.PlaylistID, id model.VideoID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertRuns++
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, id)
	return nil
}

type fakeAnnouncer struct {
	announced []model.VideoID
	err       error
}

func (f *fakeAnnouncer) Announce(_ context.Context, video model.Video, _ string, _, _ notify.Target) error {
	f.announced = append(f.announced, video.ID)
	return f.err
}

type fakeRepo struct {
	records []storage.Record
}

func (f *fakeRepo) Save(_ context.Context, r storage.Record) error {
	f.records = append(f.records, r)
	return nil
}

type fixture struct {
	cat       *fakeCatalog
	announcer *fakeAnnouncer
	repo      *fakeRepo
	tracker   *cooldown.Tracker
	waits     []time.Duration
	orch      *submit.Orchestrator
}

func newFixture(t *testing.T, window time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		cat:       newFakeCatalog(),
		announcer: &fakeAnnouncer{},
		repo:      &fakeRepo{},
		tracker:   cooldown.New(window),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := retry.NewExecutor(retry.DefaultPlan, logger).WithSleeper(func(_ context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return nil
	})
	policy := submit.NewPolicy(f.cat, exec, 0)
	f.orch = submit.NewOrchestrator(policy, f.cat, exec, f.tracker, f.announcer, f.repo, playlist, logger)
	return f
}

func TestSubmitAddsVideosInOrder(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.addVideo("AAAAAAA1111", "First", 2*time.Minute)
	f.cat.addVideo("BBBBBBB2222", "Second", 3*time.Minute)

	var observed []model.Outcome
	outcomes, err := f.orch.Submit(context.Background(), submit.Request{
		Text:   "check https://youtu.be/AAAAAAA1111 and https://www.youtube.com/watch?v=BBBBBBB2222",
		UserID: "42",
		Source: submit.SourceMessage,
		Observer: func(_ context.Context, o model.Outcome) {
			observed = append(observed, o)
		},
	})

	require.NoError(t, err)
	exp := []model.Outcome{
		{Kind: model.OutcomeAdded, VideoID: "AAAAAAA1111", Title: "First"},
		{Kind: model.OutcomeAdded, VideoID: "BBBBBBB2222", Title: "Second"},
	}
	assert.Equal(t, exp, outcomes)
	assert.Equal(t, exp, observed)
	assert.Equal(t, []model.VideoID{"AAAAAAA1111", "BBBBBBB2222"}, f.cat.inserted)
	assert.Equal(t, []model.VideoID{"AAAAAAA1111", "BBBBBBB2222"}, f.announcer.announced)

	require.Len(t, f.repo.records, 2)
	assert.Equal(t, f.repo.records[0].BatchID, f.repo.records[1].BatchID)
	assert.Equal(t, "message", f.repo.records[0].Source)
	assert.Equal(t, model.OutcomeAdded, f.repo.records[1].Outcome)
}

func TestSubmitDuplicateOnLaterPage(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.pages = map[string]catalog.Page{
		"":      {VideoIDs: []model.VideoID{"XXXXXXX0000"}, NextPageToken: "p2"},
		"p2":    {VideoIDs: []model.VideoID{"YYYYYYY0000", "DUPLICATE12"}, NextPageToken: "p3"},
		"p3":    {VideoIDs: []model.VideoID{"ZZZZZZZ0000"}},
		"never": {},
	}
	f.cat.addVideo("DUPLICATE12", "Dup", time.Minute)

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/DUPLICATE12", UserID: "42"})

	require.NoError(t, err)
	assert.Equal(t, []model.Outcome{model.Duplicate("DUPLICATE12")}, outcomes)
	assert.Equal(t, []string{"", "p2"}, f.cat.listCalls)
	assert.Empty(t, f.cat.fetchCalls)
	assert.Equal(t, 0, f.cat.insertRuns)
	assert.Empty(t, f.announcer.announced)
}

func TestSubmitTooLong(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.addVideo("TOOLONG9999", "Long Video", 601*time.Second)
	f.cat.addVideo("EXACTLY6000", "Exactly", 600*time.Second)

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/TOOLONG9999 https://youtu.be/EXACTLY6000"})

	require.NoError(t, err)
	assert.Equal(t, []model.Outcome{
		{Kind: model.OutcomeTooLong, VideoID: "TOOLONG9999", Title: "Long Video"},
		{Kind: model.OutcomeAdded, VideoID: "EXACTLY6000", Title: "Exactly"},
	}, outcomes)
	assert.Equal(t, []model.VideoID{"EXACTLY6000"}, f.cat.inserted)
}

func TestSubmitInsertRecoversWithinBudget(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.addVideo("AAAAAAA1111", "Song", time.Minute)
	transient := errors.New("503 backend error")
	f.cat.insertErrs = []error{transient, transient, transient}

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/AAAAAAA1111"})

	require.NoError(t, err)
	assert.Equal(t, []model.Outcome{{Kind: model.OutcomeAdded, VideoID: "AAAAAAA1111", Title: "Song"}}, outcomes)
	assert.Equal(t, 4, f.cat.insertRuns)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, f.waits)
}

func TestSubmitInsertExhaustsBudget(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.addVideo("AAAAAAA1111", "Song", time.Minute)
	f.cat.addVideo("BBBBBBB2222", "Next", time.Minute)
	transient := errors.New("still broken")
	for range retry.DefaultPlan {
		f.cat.insertErrs = append(f.cat.insertErrs, transient)
	}

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/AAAAAAA1111 https://youtu.be/BBBBBBB2222"})

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, model.OutcomeFailed, outcomes[0].Kind)
	assert.Equal(t, model.VideoID("AAAAAAA1111"), outcomes[0].VideoID)
	assert.ErrorIs(t, outcomes[0].Err, transient)
	assert.Equal(t, model.OutcomeAdded, outcomes[1].Kind)
	assert.Equal(t, len(retry.DefaultPlan)+1, f.cat.insertRuns)
	assert.Equal(t, []time.Duration{time.Minute, 5 * time.Minute, 10 * time.Minute}, f.waits[len(f.waits)-3:])
	assert.Equal(t, []model.VideoID{"BBBBBBB2222"}, f.announcer.announced)
}

func TestSubmitCooldown(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.cat.addVideo("AAAAAAA1111", "Song", time.Minute)
	req := submit.Request{Text: "https://youtu.be/AAAAAAA1111", UserID: "42", Cooldown: true}

	_, err := f.orch.Submit(context.Background(), req)
	require.NoError(t, err)
	f.cat.listCalls, f.cat.fetchCalls, f.cat.insertRuns = nil, nil, 0

	_, err = f.orch.Submit(context.Background(), req)
	var cdErr *submit.CooldownError
	require.True(t, errors.As(err, &cdErr))
	assert.Greater(t, cdErr.Remaining, time.Duration(0))
	assert.LessOrEqual(t, cdErr.Seconds(), 30)
	assert.Empty(t, f.cat.listCalls)
	assert.Empty(t, f.cat.fetchCalls)
	assert.Equal(t, 0, f.cat.insertRuns)

	other := req
	other.UserID = "43"
	_, err = f.orch.Submit(context.Background(), other)
	assert.NoError(t, err)

	passive := req
	passive.Cooldown = false
	_, err = f.orch.Submit(context.Background(), passive)
	assert.NoError(t, err)
}

func TestSubmitCooldownMarkedDespiteFailure(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.cat.fetchErr = catalog.ErrVideoNotFound

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/AAAAAAA1111", UserID: "42", Cooldown: true})

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.OutcomeFailed, outcomes[0].Kind)
	assert.Len(t, f.cat.fetchCalls, 1)
	assert.Greater(t, f.tracker.Remaining("42"), time.Duration(0))
}

func TestSubmitNoLinks(t *testing.T) {
	f := newFixture(t, 30*time.Second)

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "no links https://example.com", UserID: "42", Cooldown: true})

	assert.ErrorIs(t, err, submit.ErrNoLinks)
	assert.Nil(t, outcomes)
	assert.Empty(t, f.cat.listCalls)
	assert.Equal(t, time.Duration(0), f.tracker.Remaining("42"))
}

func TestSubmitCredentialsExpiredAborts(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.addVideo("AAAAAAA1111", "First", time.Minute)
	f.cat.addVideo("BBBBBBB2222", "Second", time.Minute)
	f.cat.addVideo("CCCCCCC3333", "Third", time.Minute)
	f.cat.insertErrs = []error{nil, &catalog.CredentialsError{Err: errors.New("401")}}

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/AAAAAAA1111 https://youtu.be/BBBBBBB2222 https://youtu.be/CCCCCCC3333"})

	assert.Nil(t, outcomes)
	assert.ErrorIs(t, err, catalog.ErrCredentialsExpired)
	var abortErr *submit.AbortError
	require.True(t, errors.As(err, &abortErr))
	assert.Equal(t, []model.Outcome{{Kind: model.OutcomeAdded, VideoID: "AAAAAAA1111", Title: "First"}}, abortErr.Added())
	assert.Equal(t, 2, f.cat.insertRuns)
	assert.Empty(t, f.waits)
	assert.NotContains(t, f.cat.fetchCalls, model.VideoID("CCCCCCC3333"))
}

func TestSubmitCredentialsExpiredDuringAdmission(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.listErr = &catalog.CredentialsError{Err: errors.New("403")}

	_, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/AAAAAAA1111"})

	assert.ErrorIs(t, err, catalog.ErrCredentialsExpired)
	assert.Len(t, f.cat.listCalls, 1)
	assert.Empty(t, f.waits)
	assert.Empty(t, f.repo.records)
}

func TestSubmitAnnounceFailureKeepsAdded(t *testing.T) {
	f := newFixture(t, 0)
	f.cat.addVideo("AAAAAAA1111", "Song", time.Minute)
	f.announcer.err = errors.New("channel gone")

	outcomes, err := f.orch.Submit(context.Background(), submit.Request{Text: "https://youtu.be/AAAAAAA1111"})

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAdded, outcomes[0].Kind)
}
