// Package webhook validates inbound payment processor notifications.
//
// Verification is pure: it works off the signature header, the request id
// and the notified resource id, and never touches the network or the
// database. Everything that mutates state happens after a notification has
// passed through here.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature   = errors.New("missing signature header")
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrStaleTimestamp     = errors.New("signature timestamp outside tolerance")
)

// Event is a verified notification descriptor.
type Event struct {
	Topic      string
	ResourceID string
	RequestID  string
}

// IdempotencyKey identifies one delivery: the processor's request id when
// present, otherwise topic plus resource id.
func (e Event) IdempotencyKey() string {
	if e.RequestID != "" && e.RequestID != "no-request-id" {
		return e.RequestID
	}
	return e.Topic + ":" + e.ResourceID
}

type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier for the shared webhook secret. A tolerance
// of zero disables the timestamp freshness check.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks the x-signature header against the notified resource id and
// request id. The signature carries a unix timestamp (ts) and an HMAC-SHA256
// hex digest (v1) over the canonical manifest
//
//	id:{resourceID};request-id:{requestID};ts:{ts};
func (v *Verifier) Verify(signature, requestID, resourceID string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	var ts, hash string
	for _, part := range strings.Split(signature, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			hash = strings.TrimSpace(value)
		}
	}
	if ts == "" || hash == "" {
		return ErrMalformedSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resourceID, requestID, ts)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return ErrInvalidSignature
	}

	if v.tolerance > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return ErrMalformedSignature
		}
		age := v.now().Sub(time.Unix(sec, 0))
		if age > v.tolerance || age < -v.tolerance {
			return ErrStaleTimestamp
		}
	}

	return nil
}
