package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kwakchaewon/surveypulse/internal/domain"
)

// SurveyDirectory resolves survey ownership from the shared schema.
type SurveyDirectory struct {
	pool *pgxpool.Pool
}

func NewSurveyDirectory(pool *pgxpool.Pool) *SurveyDirectory {
	return &SurveyDirectory{pool: pool}
}

func (d *SurveyDirectory) OwnerOf(ctx context.Context, surveyID int64) (*domain.SurveyOwner, error) {
	var owner domain.SurveyOwner
	err := d.pool.QueryRow(ctx, `
		SELECT s.user_id, u.username, COALESCE(NULLIF(u.real_username, ''), u.username)
		FROM surveys s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.is_deleted = FALSE
	`, surveyID).Scan(&owner.UserID, &owner.Username, &owner.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up survey owner: %w", err)
	}
	return &owner, nil
}

// UserDirectory maps usernames to user ids for the notification API.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) IDOf(ctx context.Context, username string) (int64, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up user id: %w", err)
	}
	return id, nil
}
