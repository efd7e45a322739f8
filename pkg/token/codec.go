// Package token issues and verifies the self-contained recommendation-link
// credential. A token scopes one connector to one job for a fixed validity
// window and can be verified with nothing but the shared signing secret — no
// session state, no database row.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TTL is the cryptographic validity window of a link token. Outstanding
// tokens embed the wire format, so changing this only affects new issues.
const TTL = 30 * 24 * time.Hour

// digestLen is the hex-char length the SHA-256 digest is truncated to.
// 32 hex chars keep 128 of the 256 bits — a deliberate size/strength
// trade-off so tokens stay short enough for messaging apps.
const digestLen = 32

// ErrInvalid is the single failure mode surfaced to untrusted callers.
// The concrete causes below all match it via errors.Is, so handlers can
// collapse them into one generic "invalid or expired" response while logs
// keep the distinction.
var (
	ErrInvalid      = errors.New("invalid or expired token")
	ErrMalformed    = fmt.Errorf("%w: malformed", ErrInvalid)
	ErrBadSignature = fmt.Errorf("%w: signature mismatch", ErrInvalid)
	ErrExpired      = fmt.Errorf("%w: expired", ErrInvalid)
)

// LinkClaims are the fields recovered from a verified token.
type LinkClaims struct {
	ConnectorID uuid.UUID
	JobID       uuid.UUID
	IssuedAt    time.Time
}

// Codec signs and verifies recommendation-link tokens. The signing secret is
// injected, never read from process-global state, so tests can use a fixed
// secret deterministically.
type Codec struct {
	secret string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the codec's time source. Used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec with the given signing secret.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret must not be empty")
	}
	c := &Codec{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue builds a token scoping connectorID to jobID, valid for TTL from now.
// Wire format: "<32-hex-char-digest>.<base64url(payload)>" where payload is
// "<connectorID>:<jobID>:<epochMillis>". This format is stable; outstanding
// tokens embed it.
func (c *Codec) Issue(connectorID, jobID uuid.UUID) (string, time.Time, error) {
	if connectorID == uuid.Nil || jobID == uuid.Nil {
		return "", time.Time{}, errors.New("token: connector and job IDs are required")
	}

	issuedAt := c.now()
	payload := fmt.Sprintf("%s:%s:%d", connectorID, jobID, issuedAt.UnixMilli())

	tok := c.digest(payload) + "." + base64.RawURLEncoding.EncodeToString([]byte(payload))
	return tok, issuedAt, nil
}

// Verify checks a token's shape, signature and age, and returns its claims.
// Every failure matches ErrInvalid; callers that log may inspect the concrete
// cause but must not surface it to the token bearer.
func (c *Codec) Verify(tok string) (*LinkClaims, error) {
	digest, encoded, found := strings.Cut(tok, ".")
	if !found || digest == "" || encoded == "" {
		return nil, ErrMalformed
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformed
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformed
	}

	// Recompute before parsing fields so a tampered payload is reported as a
	// signature failure, not a parse failure.
	expected := c.digest(string(raw))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(digest)) != 1 {
		return nil, ErrBadSignature
	}

	connectorID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, ErrMalformed
	}
	jobID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}

	issuedAt := time.UnixMilli(millis)
	if c.now().Sub(issuedAt) > TTL {
		return nil, ErrExpired
	}

	return &LinkClaims{
		ConnectorID: connectorID,
		JobID:       jobID,
		IssuedAt:    issuedAt,
	}, nil
}

func (c *Codec) digest(payload string) string {
	sum := sha256.Sum256([]byte(payload + c.secret))
	return hex.EncodeToString(sum[:])[:digestLen]
}
