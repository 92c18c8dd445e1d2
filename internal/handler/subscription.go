package handler

import (
	"net/http"
	"time"

	"photomart/internal/mw"
)

// SubscriptionStatusHandler reports the caller's subscription state. The
// auth middleware already rejected inactive subscriptions, so this mostly
// surfaces the remaining window to the dashboard.
func SubscriptionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		resp := map[string]any{
			"status": photographer.SubscriptionStatus,
			"active": photographer.SubscriptionActiveAt(time.Now()),
		}
		if photographer.TrialEndsAt != nil {
			resp["trial_ends_at"] = photographer.TrialEndsAt.UTC().Format(time.RFC3339)
		}
		if photographer.SubscriptionExpiresAt != nil {
			resp["subscription_expires_at"] = photographer.SubscriptionExpiresAt.UTC().Format(time.RFC3339)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
