package model

import "time"

const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

type Photographer struct {
	ID                    string     `json:"id"`
	AuthUserID            string     `json:"-"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"display_name"`
	SubscriptionStatus    string     `json:"subscription_status"`
	TrialEndsAt           *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// SubscriptionActiveAt reports whether the photographer may use the
// platform at the given instant: an unexpired trial or an active
// subscription within its window.
func (p Photographer) SubscriptionActiveAt(now time.Time) bool {
	switch p.SubscriptionStatus {
	case SubscriptionTrial:
		return p.TrialEndsAt != nil && p.TrialEndsAt.After(now)
	case SubscriptionActive:
		return p.SubscriptionExpiresAt == nil || p.SubscriptionExpiresAt.After(now)
	default:
		return false
	}
}
