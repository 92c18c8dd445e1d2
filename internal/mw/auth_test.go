package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photomart/internal/model"
	"photomart/internal/service"
)

const testJWTSecret = "test-jwt-secret"

type fakeLookup struct {
	photographers map[string]*model.Photographer
}

func (f *fakeLookup) ByAuthUserID(_ context.Context, authUserID string) (*model.Photographer, error) {
	p, ok := f.photographers[authUserID]
	if !ok {
		return nil, service.ErrPhotographerNotFound
	}
	return p, nil
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func authFixture(photographer *model.Photographer) (http.Handler, *bool) {
	lookup := &fakeLookup{photographers: map[string]*model.Photographer{}}
	if photographer != nil {
		lookup.photographers[photographer.AuthUserID] = photographer
	}

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		p, ok := Photographer(r.Context())
		if ok {
			w.Header().Set("X-Photographer", p.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
	return Auth(testJWTSecret, lookup)(next), &reached
}

func activePhotographer() *model.Photographer {
	expires := time.Now().Add(30 * 24 * time.Hour)
	return &model.Photographer{
		ID:                    "ph-1",
		AuthUserID:            "auth-user-1",
		SubscriptionStatus:    model.SubscriptionActive,
		SubscriptionExpiresAt: &expires,
	}
}

func TestAuth_ValidTokenActiveSubscription(t *testing.T) {
	h, reached := authFixture(activePhotographer())

	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "auth-user-1"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	assert.Equal(t, "ph-1", rec.Header().Get("X-Photographer"))
}

func TestAuth_MissingHeader(t *testing.T) {
	h, reached := authFixture(activePhotographer())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/albums", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestAuth_BadToken(t *testing.T) {
	h, reached := authFixture(activePhotographer())

	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestAuth_UnknownSubject(t *testing.T) {
	h, reached := authFixture(activePhotographer())

	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "auth-user-unknown"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)
}

func TestAuth_ExpiredSubscription(t *testing.T) {
	expired := activePhotographer()
	past := time.Now().Add(-time.Hour)
	expired.SubscriptionExpiresAt = &past

	h, reached := authFixture(expired)

	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "auth-user-1"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)
}

func TestAuth_TrialWindow(t *testing.T) {
	trial := activePhotographer()
	trial.SubscriptionStatus = model.SubscriptionTrial
	trial.SubscriptionExpiresAt = nil
	future := time.Now().Add(24 * time.Hour)
	trial.TrialEndsAt = &future

	h, _ := authFixture(trial)

	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "auth-user-1"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
