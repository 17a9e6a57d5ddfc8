// internal/suggestions/repository.go

package suggestions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrProfileNotFound = errors.New("profile not found")

// Repository reads profile reference data. Everything here is read-only;
// profiles are owned by the identity service.
type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)

	// FindCandidates returns profiles with no relationship to userID:
	// friends, pending requests in either direction and the user
	// themselves are excluded in the query.
	FindCandidates(ctx context.Context, userID int64, limit int) ([]*Candidate, error)

	// ListProfiles returns located profiles for the nearby-players search.
	ListProfiles(ctx context.Context, excludeUserID int64, limit int) ([]*Profile, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT u.id, u.username, u.display_name, u.location, u.skill_level,
		       COALESCE(array_agg(us.sport_id) FILTER (WHERE us.sport_id IS NOT NULL), '{}') AS sport_ids
		FROM users u
		LEFT JOIN user_sports us ON us.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`, userID)

	profile, _, err := scanProfile(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (r *postgresRepository) FindCandidates(ctx context.Context, userID int64, limit int) ([]*Candidate, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT u.id, u.username, u.display_name, u.location, u.skill_level,
		       COALESCE(array_agg(us.sport_id) FILTER (WHERE us.sport_id IS NOT NULL), '{}') AS sport_ids,
		       (
		           SELECT COUNT(*)
		           FROM friendships f1
		           JOIN friendships f2 ON f1.friend_id = f2.friend_id
		           WHERE f1.user_id = $1 AND f2.user_id = u.id
		             AND f1.status = 'accepted' AND f2.status = 'accepted'
		       ) AS mutual_friends
		FROM users u
		LEFT JOIN user_sports us ON us.user_id = u.id
		WHERE u.id <> $1
		  AND NOT EXISTS (
		      SELECT 1 FROM friendships f
		      WHERE (f.user_id = $1 AND f.friend_id = u.id)
		         OR (f.user_id = u.id AND f.friend_id = $1)
		  )
		GROUP BY u.id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		profile, mutual, err := scanProfile(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, &Candidate{Profile: profile, MutualFriends: mutual})
	}
	return candidates, rows.Err()
}

func (r *postgresRepository) ListProfiles(ctx context.Context, excludeUserID int64, limit int) ([]*Profile, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT u.id, u.username, u.display_name, u.location, u.skill_level,
		       COALESCE(array_agg(us.sport_id) FILTER (WHERE us.sport_id IS NOT NULL), '{}') AS sport_ids
		FROM users u
		LEFT JOIN user_sports us ON us.user_id = u.id
		WHERE u.id <> $1 AND u.location IS NOT NULL
		GROUP BY u.id
		LIMIT $2
	`, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		profile, _, err := scanProfile(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner, withMutual bool) (*Profile, int, error) {
	var profile Profile
	var sportIDs pq.Int64Array
	var mutual int

	dest := []interface{}{
		&profile.ID, &profile.Username, &profile.DisplayName,
		&profile.Location, &profile.SkillLevel, &sportIDs,
	}
	if withMutual {
		dest = append(dest, &mutual)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	profile.SportIDs = sportIDs
	return &profile, mutual, nil
}
