// internal/matches/service.go
// Match lifecycle: creation, joins, invitations, responses, leaves, and
// the capacity invariant binding match status to the confirmed count.
// Every mutating operation runs under the repository's per-match lock;
// events are published only after the transaction commits.

package matches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/common/utils"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/geo"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/notifications"
)

type Service interface {
	CreateMatch(ctx context.Context, creatorID int64, dto *CreateMatchDTO) (*Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*Match, error)
	SearchMatches(ctx context.Context, params SearchParams) ([]*ScoredMatch, error)
	ListUserMatches(ctx context.Context, userID int64) ([]*Match, error)

	RequestJoin(ctx context.Context, matchID uuid.UUID, userID int64) (*Participant, error)
	Invite(ctx context.Context, matchID uuid.UUID, inviterID, inviteeID int64) (*Participant, error)
	Respond(ctx context.Context, matchID uuid.UUID, userID int64, accept bool) (*Participant, error)
	Leave(ctx context.Context, matchID uuid.UUID, userID int64) error
	Cancel(ctx context.Context, matchID uuid.UUID, userID int64) (*Match, error)
	Complete(ctx context.Context, matchID uuid.UUID, userID int64) (*Match, error)
}

type service struct {
	repo   Repository
	events notifications.Publisher
}

func NewService(repo Repository, events notifications.Publisher) Service {
	if events == nil {
		events = notifications.Nop{}
	}
	return &service{repo: repo, events: events}
}

func (s *service) CreateMatch(ctx context.Context, creatorID int64, dto *CreateMatchDTO) (*Match, error) {
	if err := utils.ValidateStruct(dto); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	scheduledAt, err := time.Parse(time.RFC3339, dto.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_at must be RFC3339", ErrValidation)
	}
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", ErrValidation)
	}

	skill := SkillLevel(dto.SkillLevel)
	if skill == "" {
		skill = SkillAny
	}
	if !ValidSkillLevel(skill) {
		return nil, fmt.Errorf("%w: unknown skill level %q", ErrValidation, dto.SkillLevel)
	}

	if _, err := s.repo.GetSport(ctx, dto.SportID); err != nil {
		return nil, err
	}

	match := &Match{
		ID:              uuid.New(),
		SportID:         dto.SportID,
		Title:           dto.Title,
		Location:        geo.FormatPoint(geo.Point{Latitude: dto.Latitude, Longitude: dto.Longitude}),
		LocationName:    dto.LocationName,
		ScheduledAt:     scheduledAt,
		DurationMinutes: dto.DurationMinutes,
		MaxParticipants: dto.MaxParticipants,
		SkillLevel:      skill,
		Status:          StatusOpen,
		CreatedBy:       creatorID,
	}
	if dto.Description != "" {
		match.Description = &dto.Description
	}
	// A one-slot match is full the moment its creator auto-joins.
	if match.MaxParticipants == 1 {
		match.Status = StatusFull
	}

	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return nil, err
	}

	RecordMatchCreated()
	s.events.Publish(ctx, notifications.NewEvent(notifications.EventJoined, match.ID, creatorID))
	if match.Status == StatusFull {
		s.events.Publish(ctx, notifications.NewEvent(notifications.EventMatchFull, match.ID, creatorID))
	}
	return match, nil
}

func (s *service) GetMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	match, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	match.Participants = participants
	return match, nil
}

func (s *service) ListUserMatches(ctx context.Context, userID int64) ([]*Match, error) {
	return s.repo.ListUserMatches(ctx, userID)
}

func (s *service) RequestJoin(ctx context.Context, matchID uuid.UUID, userID int64) (*Participant, error) {
	var participant *Participant
	var pending []notifications.Event

	err := s.repo.WithMatchLock(ctx, matchID, func(ctx context.Context, tx MatchTx) error {
		match := tx.Match()
		if match.Status != StatusOpen {
			return ErrMatchNotOpen
		}
		if err := s.ensureNotParticipant(ctx, tx, userID); err != nil {
			return err
		}
		count, err := tx.ConfirmedCount(ctx)
		if err != nil {
			return err
		}
		if count >= match.MaxParticipants {
			return ErrMatchFull
		}

		participant, err = tx.InsertParticipant(ctx, userID, ParticipantConfirmed)
		if err != nil {
			return err
		}
		pending = append(pending, notifications.NewEvent(notifications.EventJoined, matchID, userID))
		return s.syncCapacity(ctx, tx, userID, &pending)
	})
	if err != nil {
		RecordOperation("join", outcome(err))
		return nil, err
	}

	RecordOperation("join", "ok")
	s.publish(ctx, pending)
	return participant, nil
}

func (s *service) Invite(ctx context.Context, matchID uuid.UUID, inviterID, inviteeID int64) (*Participant, error) {
	var participant *Participant
	var pending []notifications.Event

	err := s.repo.WithMatchLock(ctx, matchID, func(ctx context.Context, tx MatchTx) error {
		match := tx.Match()
		if match.CreatedBy != inviterID {
			return ErrForbidden
		}
		if match.Status != StatusOpen {
			return ErrMatchNotOpen
		}
		count, err := tx.ConfirmedCount(ctx)
		if err != nil {
			return err
		}
		if count >= match.MaxParticipants {
			return ErrMatchFull
		}
		if err := s.ensureNotParticipant(ctx, tx, inviteeID); err != nil {
			return err
		}

		// Pending rows never count toward capacity, so the match status
		// stays untouched here.
		participant, err = tx.InsertParticipant(ctx, inviteeID, ParticipantPending)
		if err != nil {
			return err
		}
		pending = append(pending, notifications.NewEvent(notifications.EventInvited, matchID, inviteeID))
		return nil
	})
	if err != nil {
		RecordOperation("invite", outcome(err))
		return nil, err
	}

	RecordOperation("invite", "ok")
	s.publish(ctx, pending)
	return participant, nil
}

func (s *service) Respond(ctx context.Context, matchID uuid.UUID, userID int64, accept bool) (*Participant, error) {
	var participant *Participant
	var pending []notifications.Event

	err := s.repo.WithMatchLock(ctx, matchID, func(ctx context.Context, tx MatchTx) error {
		existing, err := tx.Participant(ctx, userID)
		if err != nil {
			return err
		}
		if existing.Status != ParticipantPending {
			return ErrParticipantNotFound
		}

		if !accept {
			if err := tx.UpdateParticipantStatus(ctx, userID, ParticipantDeclined); err != nil {
				return err
			}
			existing.Status = ParticipantDeclined
			participant = existing
			pending = append(pending, notifications.NewEvent(notifications.EventDeclined, matchID, userID))
			return nil
		}

		// Capacity at respond time is independent of capacity at invite
		// time; both must hold.
		match := tx.Match()
		count, err := tx.ConfirmedCount(ctx)
		if err != nil {
			return err
		}
		if count >= match.MaxParticipants {
			return ErrMatchFull
		}
		if err := tx.UpdateParticipantStatus(ctx, userID, ParticipantConfirmed); err != nil {
			return err
		}
		existing.Status = ParticipantConfirmed
		participant = existing
		pending = append(pending, notifications.NewEvent(notifications.EventAccepted, matchID, userID))
		return s.syncCapacity(ctx, tx, userID, &pending)
	})
	if err != nil {
		RecordOperation("respond", outcome(err))
		return nil, err
	}

	RecordOperation("respond", "ok")
	s.publish(ctx, pending)
	return participant, nil
}

// Leave deletes the caller's participant row. A missing row is a silent
// success, so the operation is idempotent.
func (s *service) Leave(ctx context.Context, matchID uuid.UUID, userID int64) error {
	var pending []notifications.Event

	err := s.repo.WithMatchLock(ctx, matchID, func(ctx context.Context, tx MatchTx) error {
		if _, err := tx.Participant(ctx, userID); err != nil {
			if err == ErrParticipantNotFound {
				return nil
			}
			return err
		}
		if err := tx.DeleteParticipant(ctx, userID); err != nil {
			return err
		}
		pending = append(pending, notifications.NewEvent(notifications.EventLeft, matchID, userID))
		return s.syncCapacity(ctx, tx, userID, &pending)
	})
	if err != nil {
		RecordOperation("leave", outcome(err))
		return err
	}

	RecordOperation("leave", "ok")
	s.publish(ctx, pending)
	return nil
}

func (s *service) Cancel(ctx context.Context, matchID uuid.UUID, userID int64) (*Match, error) {
	return s.finish(ctx, matchID, userID, StatusCancelled)
}

func (s *service) Complete(ctx context.Context, matchID uuid.UUID, userID int64) (*Match, error) {
	return s.finish(ctx, matchID, userID, StatusCompleted)
}

func (s *service) finish(ctx context.Context, matchID uuid.UUID, userID int64, status Status) (*Match, error) {
	var match *Match
	err := s.repo.WithMatchLock(ctx, matchID, func(ctx context.Context, tx MatchTx) error {
		m := tx.Match()
		if m.CreatedBy != userID {
			return ErrForbidden
		}
		if m.Status.Terminal() {
			return ErrMatchFinished
		}
		if err := tx.UpdateMatchStatus(ctx, status); err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// ensureNotParticipant rejects any existing row regardless of status.
// A declined row blocks re-inviting the same user; that stricter reading
// is deliberate and matches the documented uniqueness rule.
func (s *service) ensureNotParticipant(ctx context.Context, tx MatchTx, userID int64) error {
	_, err := tx.Participant(ctx, userID)
	if err == nil {
		return ErrAlreadyParticipant
	}
	if err == ErrParticipantNotFound {
		return nil
	}
	return err
}

// syncCapacity re-derives match status from the confirmed count:
// count >= cap means full, count < cap means open. Terminal states are
// never touched.
func (s *service) syncCapacity(ctx context.Context, tx MatchTx, actorID int64, pending *[]notifications.Event) error {
	match := tx.Match()
	if match.Status.Terminal() {
		return nil
	}

	count, err := tx.ConfirmedCount(ctx)
	if err != nil {
		return err
	}

	switch {
	case count >= match.MaxParticipants && match.Status == StatusOpen:
		if err := tx.UpdateMatchStatus(ctx, StatusFull); err != nil {
			return err
		}
		RecordCapacityFlip("full")
		*pending = append(*pending, notifications.NewEvent(notifications.EventMatchFull, match.ID, actorID))
	case count < match.MaxParticipants && match.Status == StatusFull:
		if err := tx.UpdateMatchStatus(ctx, StatusOpen); err != nil {
			return err
		}
		RecordCapacityFlip("reopened")
		*pending = append(*pending, notifications.NewEvent(notifications.EventMatchReopened, match.ID, actorID))
	}
	return nil
}

func (s *service) publish(ctx context.Context, events []notifications.Event) {
	for _, event := range events {
		s.events.Publish(ctx, event)
	}
}

func outcome(err error) string {
	switch err {
	case ErrMatchNotFound:
		return "not_found"
	case ErrMatchNotOpen:
		return "not_open"
	case ErrMatchFull:
		return "full"
	case ErrAlreadyParticipant:
		return "already_participant"
	case ErrParticipantNotFound:
		return "no_pending_invite"
	case ErrForbidden:
		return "forbidden"
	case ErrLockTimeout:
		return "lock_timeout"
	default:
		return "error"
	}
}
