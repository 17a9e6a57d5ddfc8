// internal/matches/service_test.go

package matches

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/notifications"
)

// memRepo is an in-memory Repository. WithMatchLock serializes callbacks
// per match id with a mutex and commits the callback's staged state only
// when it returns nil, mirroring the transactional contract.
type memRepo struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
	parts   map[uuid.UUID]map[int64]*Participant
	sports  map[int64]*Sport
	locks   map[uuid.UUID]*sync.Mutex
}

func newMemRepo() *memRepo {
	return &memRepo{
		matches: make(map[uuid.UUID]*Match),
		parts:   make(map[uuid.UUID]map[int64]*Participant),
		sports: map[int64]*Sport{
			1: {ID: 1, Name: "basketball", MinPlayers: 2},
		},
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *memRepo) CreateMatch(_ context.Context, match *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *match
	creator := &Participant{
		MatchID:  match.ID,
		UserID:   match.CreatedBy,
		Status:   ParticipantConfirmed,
		JoinedAt: time.Now(),
	}
	r.matches[match.ID] = &stored
	r.parts[match.ID] = map[int64]*Participant{match.CreatedBy: creator}
	r.locks[match.ID] = &sync.Mutex{}
	match.Participants = []*Participant{creator}
	return nil
}

func (r *memRepo) GetMatch(_ context.Context, id uuid.UUID) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *memRepo) FindMatches(_ context.Context, _ MatchFilter) ([]*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Match
	for _, m := range r.matches {
		copied := *m
		result = append(result, &copied)
	}
	return result, nil
}

func (r *memRepo) ListParticipants(_ context.Context, matchID uuid.UUID) ([]*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Participant
	for _, p := range r.parts[matchID] {
		copied := *p
		result = append(result, &copied)
	}
	return result, nil
}

func (r *memRepo) ListUserMatches(_ context.Context, userID int64) ([]*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Match
	for id, m := range r.matches {
		if _, ok := r.parts[id][userID]; ok {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memRepo) GetSport(_ context.Context, id int64) (*Sport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sport, ok := r.sports[id]
	if !ok {
		return nil, ErrSportNotFound
	}
	return sport, nil
}

func (r *memRepo) WithMatchLock(ctx context.Context, matchID uuid.UUID, fn func(ctx context.Context, tx MatchTx) error) error {
	r.mu.Lock()
	stored, ok := r.matches[matchID]
	if !ok {
		r.mu.Unlock()
		return ErrMatchNotFound
	}
	lock := r.locks[matchID]
	r.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	matchCopy := *stored
	partsCopy := make(map[int64]*Participant, len(r.parts[matchID]))
	for uid, p := range r.parts[matchID] {
		copied := *p
		partsCopy[uid] = &copied
	}
	r.mu.Unlock()

	tx := &memTx{match: &matchCopy, parts: partsCopy}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.mu.Lock()
	r.matches[matchID] = &matchCopy
	r.parts[matchID] = partsCopy
	r.mu.Unlock()
	return nil
}

type memTx struct {
	match *Match
	parts map[int64]*Participant
}

func (t *memTx) Match() *Match { return t.match }

func (t *memTx) Participant(_ context.Context, userID int64) (*Participant, error) {
	p, ok := t.parts[userID]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (t *memTx) Participants(_ context.Context) ([]*Participant, error) {
	var result []*Participant
	for _, p := range t.parts {
		copied := *p
		result = append(result, &copied)
	}
	return result, nil
}

func (t *memTx) ConfirmedCount(_ context.Context) (int, error) {
	count := 0
	for _, p := range t.parts {
		if p.Status == ParticipantConfirmed {
			count++
		}
	}
	return count, nil
}

func (t *memTx) InsertParticipant(_ context.Context, userID int64, status ParticipantStatus) (*Participant, error) {
	if _, ok := t.parts[userID]; ok {
		return nil, ErrAlreadyParticipant
	}
	p := &Participant{
		MatchID:  t.match.ID,
		UserID:   userID,
		Status:   status,
		JoinedAt: time.Now(),
	}
	t.parts[userID] = p
	copied := *p
	return &copied, nil
}

func (t *memTx) UpdateParticipantStatus(_ context.Context, userID int64, status ParticipantStatus) error {
	p, ok := t.parts[userID]
	if !ok {
		return ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (t *memTx) DeleteParticipant(_ context.Context, userID int64) error {
	delete(t.parts, userID)
	return nil
}

func (t *memTx) UpdateMatchStatus(_ context.Context, status Status) error {
	t.match.Status = status
	return nil
}

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *eventRecorder) Publish(_ context.Context, event notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []notifications.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifications.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestService() (Service, *memRepo, *eventRecorder) {
	repo := newMemRepo()
	recorder := &eventRecorder{}
	return NewService(repo, recorder), repo, recorder
}

func validCreateDTO(maxParticipants int) *CreateMatchDTO {
	return &CreateMatchDTO{
		SportID:         1,
		Title:           "Pickup game",
		Latitude:        40.7128,
		Longitude:       -74.0060,
		LocationName:    "Riverside Court",
		ScheduledAt:     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		DurationMinutes: 60,
		MaxParticipants: maxParticipants,
	}
}

func mustCreate(t *testing.T, svc Service, creatorID int64, maxParticipants int) *Match {
	t.Helper()
	match, err := svc.CreateMatch(context.Background(), creatorID, validCreateDTO(maxParticipants))
	require.NoError(t, err)
	return match
}

func TestCreateMatch(t *testing.T) {
	svc, _, recorder := newTestService()

	match := mustCreate(t, svc, 7, 4)

	assert.Equal(t, StatusOpen, match.Status)
	assert.Equal(t, SkillAny, match.SkillLevel)
	assert.Equal(t, int64(7), match.CreatedBy)
	require.Len(t, match.Participants, 1)
	assert.Equal(t, int64(7), match.Participants[0].UserID)
	assert.Equal(t, ParticipantConfirmed, match.Participants[0].Status)
	assert.Equal(t, []notifications.EventType{notifications.EventJoined}, recorder.types())
}

func TestCreateMatchOneSlotIsFull(t *testing.T) {
	svc, _, recorder := newTestService()

	match := mustCreate(t, svc, 7, 1)

	assert.Equal(t, StatusFull, match.Status)
	assert.Contains(t, recorder.types(), notifications.EventMatchFull)

	_, err := svc.RequestJoin(context.Background(), match.ID, 8)
	assert.ErrorIs(t, err, ErrMatchNotOpen)
}

func TestCreateMatchValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateMatchDTO)
	}{
		{"missing title", func(d *CreateMatchDTO) { d.Title = "" }},
		{"latitude out of range", func(d *CreateMatchDTO) { d.Latitude = 91 }},
		{"longitude out of range", func(d *CreateMatchDTO) { d.Longitude = -181 }},
		{"bad timestamp", func(d *CreateMatchDTO) { d.ScheduledAt = "tomorrow" }},
		{"past timestamp", func(d *CreateMatchDTO) {
			d.ScheduledAt = time.Now().Add(-time.Hour).Format(time.RFC3339)
		}},
		{"unknown skill level", func(d *CreateMatchDTO) { d.SkillLevel = "pro" }},
		{"zero capacity", func(d *CreateMatchDTO) { d.MaxParticipants = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dto := validCreateDTO(4)
			tc.mutate(dto)
			_, err := svc.CreateMatch(ctx, 1, dto)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	dto := validCreateDTO(4)
	dto.SportID = 999
	_, err := svc.CreateMatch(ctx, 1, dto)
	assert.ErrorIs(t, err, ErrSportNotFound)
}

func TestRequestJoinFillsAndFlips(t *testing.T) {
	svc, _, recorder := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	_, err := svc.RequestJoin(ctx, match.ID, 2)
	require.NoError(t, err)

	current, err := svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, current.Status)

	_, err = svc.RequestJoin(ctx, match.ID, 3)
	require.NoError(t, err)

	current, err = svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, current.Status)
	assert.Equal(t, 3, ConfirmedCount(current.Participants))
	assert.Contains(t, recorder.types(), notifications.EventMatchFull)

	_, err = svc.RequestJoin(ctx, match.ID, 4)
	assert.ErrorIs(t, err, ErrMatchNotOpen)
}

func TestRequestJoinDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 5)

	_, err := svc.RequestJoin(ctx, match.ID, 2)
	require.NoError(t, err)
	_, err = svc.RequestJoin(ctx, match.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyParticipant)

	// The creator already holds a confirmed row.
	_, err = svc.RequestJoin(ctx, match.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyParticipant)
}

func TestRequestJoinUnknownMatch(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RequestJoin(context.Background(), uuid.New(), 2)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestConcurrentJoinRespectsCapacity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// One free slot, fifty racers. Exactly one join may succeed.
	match := mustCreate(t, svc, 1, 2)

	const racers = 50
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RequestJoin(ctx, match.ID, int64(100+i))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t,
				err == ErrMatchFull || err == ErrMatchNotOpen,
				"unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	current, err := svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, current.Status)
	assert.Equal(t, 2, ConfirmedCount(current.Participants))
}

func TestInviteFlow(t *testing.T) {
	svc, _, recorder := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	participant, err := svc.Invite(ctx, match.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ParticipantPending, participant.Status)

	// Pending rows never count toward capacity.
	current, err := svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ConfirmedCount(current.Participants))
	assert.Equal(t, StatusOpen, current.Status)

	accepted, err := svc.Respond(ctx, match.ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, ParticipantConfirmed, accepted.Status)
	assert.Contains(t, recorder.types(), notifications.EventInvited)
	assert.Contains(t, recorder.types(), notifications.EventAccepted)
}

func TestInviteOnlyCreator(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	_, err := svc.Invite(ctx, match.ID, 2, 3)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeclineBlocksReinvite(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	_, err := svc.Invite(ctx, match.ID, 1, 2)
	require.NoError(t, err)

	declined, err := svc.Respond(ctx, match.ID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, ParticipantDeclined, declined.Status)

	// The declined row still occupies the (match, user) slot.
	_, err = svc.Invite(ctx, match.ID, 1, 2)
	assert.ErrorIs(t, err, ErrAlreadyParticipant)

	// A declined row cannot be answered again either.
	_, err = svc.Respond(ctx, match.ID, 2, true)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestRespondChecksCapacityAtResponseTime(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 2)

	// Invite while a slot is free, then let someone else take it.
	_, err := svc.Invite(ctx, match.ID, 1, 2)
	require.NoError(t, err)
	_, err = svc.RequestJoin(ctx, match.ID, 3)
	require.NoError(t, err)

	_, err = svc.Respond(ctx, match.ID, 2, true)
	assert.ErrorIs(t, err, ErrMatchFull)

	// Declining is always allowed, full or not.
	declined, err := svc.Respond(ctx, match.ID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, ParticipantDeclined, declined.Status)
}

func TestRespondWithoutInvite(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	_, err := svc.Respond(ctx, match.ID, 9, true)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	// A confirmed participant has no pending invite to answer.
	_, err = svc.RequestJoin(ctx, match.ID, 2)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, match.ID, 2, true)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestLeaveReopensFullMatch(t *testing.T) {
	svc, _, recorder := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 2)
	_, err := svc.RequestJoin(ctx, match.ID, 2)
	require.NoError(t, err)

	current, err := svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFull, current.Status)

	require.NoError(t, svc.Leave(ctx, match.ID, 2))

	current, err = svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, current.Status)
	assert.Equal(t, 1, ConfirmedCount(current.Participants))
	assert.Contains(t, recorder.types(), notifications.EventMatchReopened)

	// The freed slot is joinable again.
	_, err = svc.RequestJoin(ctx, match.ID, 3)
	assert.NoError(t, err)
}

func TestLeaveIsIdempotent(t *testing.T) {
	svc, _, recorder := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	require.NoError(t, svc.Leave(ctx, match.ID, 42))
	require.NoError(t, svc.Leave(ctx, match.ID, 42))

	for _, typ := range recorder.types() {
		assert.NotEqual(t, notifications.EventLeft, typ)
	}
}

func TestCancelAndComplete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	_, err := svc.Cancel(ctx, match.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := svc.Cancel(ctx, match.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Complete(ctx, match.ID, 1)
	assert.ErrorIs(t, err, ErrMatchFinished)

	// A cancelled match accepts no joins.
	_, err = svc.RequestJoin(ctx, match.ID, 2)
	assert.ErrorIs(t, err, ErrMatchNotOpen)
}

func TestLeaveNeverReopensTerminalMatch(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 2)
	_, err := svc.RequestJoin(ctx, match.ID, 2)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, match.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, match.ID, 2))

	current, err := svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, current.Status)
}

// The status column must track the confirmed count after every mixed
// sequence of joins, leaves, invites and responses.
func TestStatusTracksConfirmedCount(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	match := mustCreate(t, svc, 1, 3)

	check := func() {
		t.Helper()
		current, err := svc.GetMatch(ctx, match.ID)
		require.NoError(t, err)
		count := ConfirmedCount(current.Participants)
		if count >= current.MaxParticipants {
			assert.Equal(t, StatusFull, current.Status)
		} else {
			assert.Equal(t, StatusOpen, current.Status)
		}
	}

	steps := []func() error{
		func() error { _, err := svc.RequestJoin(ctx, match.ID, 2); return err },
		func() error { _, err := svc.Invite(ctx, match.ID, 1, 3); return err },
		func() error { _, err := svc.Respond(ctx, match.ID, 3, true); return err },
		func() error { return svc.Leave(ctx, match.ID, 2) },
		func() error { _, err := svc.RequestJoin(ctx, match.ID, 4); return err },
		func() error { return svc.Leave(ctx, match.ID, 3) },
		func() error { return svc.Leave(ctx, match.ID, 4) },
	}
	for i, step := range steps {
		require.NoError(t, step(), fmt.Sprintf("step %d", i))
		check()
	}
}
