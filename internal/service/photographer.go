package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"photomart/internal/model"
)

var ErrPhotographerNotFound = errors.New("photographer not found")

type PhotographerService struct {
	db *sql.DB
}

func NewPhotographerService(db *sql.DB) *PhotographerService {
	return &PhotographerService{db: db}
}

// ByAuthUserID resolves the tenant for an identity-provider subject.
func (s *PhotographerService) ByAuthUserID(ctx context.Context, authUserID string) (*model.Photographer, error) {
	var p model.Photographer
	var trialEndsAt, expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, auth_user_id, email, display_name, subscription_status, trial_ends_at, subscription_expires_at, created_at
		FROM photographers
		WHERE auth_user_id = $1
	`, authUserID).Scan(&p.ID, &p.AuthUserID, &p.Email, &p.DisplayName,
		&p.SubscriptionStatus, &trialEndsAt, &expiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhotographerNotFound
		}
		return nil, fmt.Errorf("get photographer: %w", err)
	}
	if trialEndsAt.Valid {
		p.TrialEndsAt = &trialEndsAt.Time
	}
	if expiresAt.Valid {
		p.SubscriptionExpiresAt = &expiresAt.Time
	}
	return &p, nil
}
