// internal/matches/repository.go

package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository is the persistence boundary for matches and participants.
// WithMatchLock provides the per-match mutual exclusion every mutating
// lifecycle operation runs under.
type Repository interface {
	CreateMatch(ctx context.Context, match *Match) error
	GetMatch(ctx context.Context, id uuid.UUID) (*Match, error)
	FindMatches(ctx context.Context, filter MatchFilter) ([]*Match, error)
	ListParticipants(ctx context.Context, matchID uuid.UUID) ([]*Participant, error)
	ListUserMatches(ctx context.Context, userID int64) ([]*Match, error)
	GetSport(ctx context.Context, id int64) (*Sport, error)

	// WithMatchLock runs fn while holding an exclusive lock on the match
	// row. The whole callback commits or rolls back as a unit; locks on
	// different match ids never contend.
	WithMatchLock(ctx context.Context, matchID uuid.UUID, fn func(ctx context.Context, tx MatchTx) error) error
}

// MatchTx is the view of a single locked match inside WithMatchLock.
type MatchTx interface {
	Match() *Match
	Participant(ctx context.Context, userID int64) (*Participant, error)
	Participants(ctx context.Context) ([]*Participant, error)
	ConfirmedCount(ctx context.Context) (int, error)
	InsertParticipant(ctx context.Context, userID int64, status ParticipantStatus) (*Participant, error)
	UpdateParticipantStatus(ctx context.Context, userID int64, status ParticipantStatus) error
	DeleteParticipant(ctx context.Context, userID int64) error
	UpdateMatchStatus(ctx context.Context, status Status) error
}

type postgresRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewPostgresRepository(db *sqlx.DB, lockTimeout time.Duration) Repository {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &postgresRepository{db: db, lockTimeout: lockTimeout}
}

const matchColumns = `
	id, sport_id, title, description, location, location_name,
	scheduled_at, duration_minutes, max_participants,
	skill_level_required, status, created_by, created_at, updated_at
`

func (r *postgresRepository) CreateMatch(ctx context.Context, match *Match) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create match: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (
			id, sport_id, title, description, location, location_name,
			scheduled_at, duration_minutes, max_participants,
			skill_level_required, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowxContext(
		ctx, query,
		match.ID, match.SportID, match.Title, match.Description,
		match.Location, match.LocationName, match.ScheduledAt,
		match.DurationMinutes, match.MaxParticipants,
		match.SkillLevel, match.Status, match.CreatedBy,
	).Scan(&match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	// Creator auto-joins in the same transaction; a match must never be
	// observable without its creator's confirmed row.
	creator := &Participant{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO match_participants (match_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING match_id, user_id, status, joined_at
	`, match.ID, match.CreatedBy, ParticipantConfirmed).StructScan(creator)
	if err != nil {
		return fmt.Errorf("insert creator participant: %w", err)
	}
	match.Participants = []*Participant{creator}

	return tx.Commit()
}

func (r *postgresRepository) GetMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	var match Match
	err := r.db.GetContext(ctx, &match,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &match, nil
}

func (r *postgresRepository) FindMatches(ctx context.Context, filter MatchFilter) ([]*Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`
	args := []interface{}{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.SportID != nil {
		add("sport_id = $%d", *filter.SportID)
	}
	if filter.SkillLevel != nil {
		add("skill_level_required = $%d", *filter.SkillLevel)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.ScheduledAfter != nil {
		add("scheduled_at > $%d", *filter.ScheduledAfter)
	}
	if text := strings.TrimSpace(filter.Text); text != "" {
		args = append(args, "%"+text+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (title ILIKE $%d OR location_name ILIKE $%d)", n, n)
	}

	query += " ORDER BY scheduled_at ASC"

	var result []*Match
	if err := r.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) ListParticipants(ctx context.Context, matchID uuid.UUID) ([]*Participant, error) {
	var participants []*Participant
	err := r.db.SelectContext(ctx, &participants, `
		SELECT match_id, user_id, status, joined_at
		FROM match_participants
		WHERE match_id = $1
		ORDER BY joined_at ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

func (r *postgresRepository) ListUserMatches(ctx context.Context, userID int64) ([]*Match, error) {
	var result []*Match
	err := r.db.SelectContext(ctx, &result, `
		SELECT m.id, m.sport_id, m.title, m.description, m.location,
		       m.location_name, m.scheduled_at, m.duration_minutes,
		       m.max_participants, m.skill_level_required, m.status,
		       m.created_by, m.created_at, m.updated_at
		FROM matches m
		JOIN match_participants mp ON mp.match_id = m.id
		WHERE mp.user_id = $1
		ORDER BY m.scheduled_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user matches: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) GetSport(ctx context.Context, id int64) (*Sport, error) {
	var sport Sport
	err := r.db.GetContext(ctx, &sport,
		`SELECT id, name, min_players, max_players FROM sports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sport: %w", err)
	}
	return &sport, nil
}

func (r *postgresRepository) WithMatchLock(ctx context.Context, matchID uuid.UUID, fn func(ctx context.Context, tx MatchTx) error) error {
	// The repository boundary owns the per-call timeout; the lifecycle
	// service stays free of timing concerns.
	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin match lock: %w", err)
	}
	defer tx.Rollback()

	var match Match
	err = tx.GetContext(ctx, &match,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrLockTimeout
	}
	if err != nil {
		return fmt.Errorf("lock match: %w", err)
	}

	if err := fn(ctx, &matchTx{tx: tx, match: &match}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match update: %w", err)
	}
	return nil
}

type matchTx struct {
	tx    *sqlx.Tx
	match *Match
}

func (t *matchTx) Match() *Match { return t.match }

func (t *matchTx) Participant(ctx context.Context, userID int64) (*Participant, error) {
	var p Participant
	err := t.tx.GetContext(ctx, &p, `
		SELECT match_id, user_id, status, joined_at
		FROM match_participants
		WHERE match_id = $1 AND user_id = $2
	`, t.match.ID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (t *matchTx) Participants(ctx context.Context) ([]*Participant, error) {
	var participants []*Participant
	err := t.tx.SelectContext(ctx, &participants, `
		SELECT match_id, user_id, status, joined_at
		FROM match_participants
		WHERE match_id = $1
		ORDER BY joined_at ASC
	`, t.match.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

func (t *matchTx) ConfirmedCount(ctx context.Context) (int, error) {
	var count int
	err := t.tx.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM match_participants
		WHERE match_id = $1 AND status = $2
	`, t.match.ID, ParticipantConfirmed)
	if err != nil {
		return 0, fmt.Errorf("confirmed count: %w", err)
	}
	return count, nil
}

func (t *matchTx) InsertParticipant(ctx context.Context, userID int64, status ParticipantStatus) (*Participant, error) {
	var p Participant
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO match_participants (match_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING match_id, user_id, status, joined_at
	`, t.match.ID, userID, status).StructScan(&p)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	return &p, nil
}

func (t *matchTx) UpdateParticipantStatus(ctx context.Context, userID int64, status ParticipantStatus) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE match_participants SET status = $3
		WHERE match_id = $1 AND user_id = $2
	`, t.match.ID, userID, status)
	if err != nil {
		return fmt.Errorf("update participant status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// DeleteParticipant is idempotent: deleting an absent row is not an error.
func (t *matchTx) DeleteParticipant(ctx context.Context, userID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM match_participants
		WHERE match_id = $1 AND user_id = $2
	`, t.match.ID, userID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

func (t *matchTx) UpdateMatchStatus(ctx context.Context, status Status) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE matches SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, t.match.ID, status)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	t.match.Status = status
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
