package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webhook-test-secret"

func signedHeader(t *testing.T, secret, resourceID, requestID string, ts time.Time) string {
	t.Helper()
	tsStr := fmt.Sprintf("%d", ts.Unix())
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resourceID, requestID, tsStr)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", tsStr, hex.EncodeToString(mac.Sum(nil)))
}

func newTestVerifier(tolerance time.Duration, now time.Time) *Verifier {
	v := NewVerifier(testSecret, tolerance)
	v.now = func() time.Time { return now }
	return v
}

func TestVerify_ValidSignature(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(5*time.Minute, now)

	sig := signedHeader(t, testSecret, "12345", "req-1", now)
	require.NoError(t, v.Verify(sig, "req-1", "12345"))
}

func TestVerify_MissingSignature(t *testing.T) {
	v := newTestVerifier(5*time.Minute, time.Now())
	assert.ErrorIs(t, v.Verify("", "req-1", "12345"), ErrMissingSignature)
}

func TestVerify_MalformedSignature(t *testing.T) {
	v := newTestVerifier(5*time.Minute, time.Now())

	tests := []struct {
		name string
		sig  string
	}{
		{"no components", "garbage"},
		{"missing hash", "ts=1700000000"},
		{"missing timestamp", "v1=abcdef"},
		{"empty values", "ts=,v1="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, v.Verify(tt.sig, "req-1", "12345"), ErrMalformedSignature)
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(5*time.Minute, now)

	sig := signedHeader(t, "some-other-secret", "12345", "req-1", now)
	assert.ErrorIs(t, v.Verify(sig, "req-1", "12345"), ErrInvalidSignature)
}

func TestVerify_TamperedResourceID(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(5*time.Minute, now)

	sig := signedHeader(t, testSecret, "12345", "req-1", now)
	assert.ErrorIs(t, v.Verify(sig, "req-1", "99999"), ErrInvalidSignature)
}

func TestVerify_StaleTimestamp(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(5*time.Minute, now)

	sig := signedHeader(t, testSecret, "12345", "req-1", now.Add(-10*time.Minute))
	assert.ErrorIs(t, v.Verify(sig, "req-1", "12345"), ErrStaleTimestamp)
}

func TestVerify_FutureTimestamp(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(5*time.Minute, now)

	sig := signedHeader(t, testSecret, "12345", "req-1", now.Add(10*time.Minute))
	assert.ErrorIs(t, v.Verify(sig, "req-1", "12345"), ErrStaleTimestamp)
}

func TestVerify_ZeroToleranceSkipsFreshnessCheck(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(0, now)

	sig := signedHeader(t, testSecret, "12345", "req-1", now.Add(-24*time.Hour))
	require.NoError(t, v.Verify(sig, "req-1", "12345"))
}

func TestEvent_IdempotencyKey(t *testing.T) {
	withRequestID := Event{Topic: "payment", ResourceID: "42", RequestID: "req-9"}
	assert.Equal(t, "req-9", withRequestID.IdempotencyKey())

	withoutRequestID := Event{Topic: "payment", ResourceID: "42", RequestID: "no-request-id"}
	assert.Equal(t, "payment:42", withoutRequestID.IdempotencyKey())
}
