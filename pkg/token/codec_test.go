package token

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, opts...)
	require.NoError(t, err)
	return c
}

func TestNewCodec_EmptySecret(t *testing.T) {
	_, err := NewCodec("")
	require.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	c := newTestCodec(t)
	connectorID := uuid.New()
	jobID := uuid.New()

	before := time.Now()
	tok, issuedAt, err := c.Issue(connectorID, jobID)
	require.NoError(t, err)

	claims, err := c.Verify(tok)
	require.NoError(t, err)

	assert.Equal(t, connectorID, claims.ConnectorID)
	assert.Equal(t, jobID, claims.JobID)
	assert.Equal(t, issuedAt.UnixMilli(), claims.IssuedAt.UnixMilli())
	assert.WithinDuration(t, before, claims.IssuedAt, 5*time.Second)
}

func TestIssue_WireFormat(t *testing.T) {
	c := newTestCodec(t)
	connectorID := uuid.New()
	jobID := uuid.New()

	tok, issuedAt, err := c.Issue(connectorID, jobID)
	require.NoError(t, err)

	digest, encoded, found := strings.Cut(tok, ".")
	require.True(t, found)
	assert.Len(t, digest, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", digest)

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err, "payload must be padding-free base64url")

	parts := strings.Split(string(raw), ":")
	require.Len(t, parts, 3)
	assert.Equal(t, connectorID.String(), parts[0])
	assert.Equal(t, jobID.String(), parts[1])

	millis, err := strconv.ParseInt(parts[2], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.UnixMilli(), millis)
}

func TestIssue_NilIDs(t *testing.T) {
	c := newTestCodec(t)

	_, _, err := c.Issue(uuid.Nil, uuid.New())
	require.Error(t, err)

	_, _, err = c.Issue(uuid.New(), uuid.Nil)
	require.Error(t, err)
}

func TestVerify_TamperedDigest(t *testing.T) {
	c := newTestCodec(t)
	tok, _, err := c.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)

	// Flipping any character in the digest portion must fail verification.
	for i := 0; i < 32; i++ {
		flipped := []byte(tok)
		if flipped[i] == 'a' {
			flipped[i] = 'b'
		} else {
			flipped[i] = 'a'
		}
		_, err := c.Verify(string(flipped))
		require.Error(t, err, "flipped digest char %d", i)
		assert.True(t, errors.Is(err, ErrInvalid))
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	c := newTestCodec(t)
	jobID := uuid.New()
	tok, _, err := c.Issue(uuid.New(), jobID)
	require.NoError(t, err)

	// Swap the connector ID for another one, keeping the original digest.
	digest, _, _ := strings.Cut(tok, ".")
	forged := digest + "." + base64.RawURLEncoding.EncodeToString(
		[]byte(uuid.New().String()+":"+jobID.String()+":1700000000000"))

	_, err = c.Verify(forged)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec("a-different-secret")
	require.NoError(t, err)

	tok, _, err := c.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = other.Verify(tok)
	require.ErrorIs(t, err, ErrBadSignature)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t)

	valid, _, err := c.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)
	_, encoded, _ := strings.Cut(valid, ".")

	cases := map[string]string{
		"empty":              "",
		"no separator":       strings.ReplaceAll(valid, ".", ""),
		"empty digest":       "." + encoded,
		"empty payload":      strings.Repeat("a", 32) + ".",
		"bad base64":         strings.Repeat("a", 32) + ".%%%%",
		"two payload fields": strings.Repeat("a", 32) + "." + base64.RawURLEncoding.EncodeToString([]byte("a:b")),
		"empty field":        strings.Repeat("a", 32) + "." + base64.RawURLEncoding.EncodeToString([]byte("a::c")),
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(tok)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestVerify_Expiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	clock := issued
	c := newTestCodec(t, WithClock(func() time.Time { return clock }))

	tok, _, err := c.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)

	// Still valid one day before the window closes.
	clock = issued.Add(29 * 24 * time.Hour)
	_, err = c.Verify(tok)
	require.NoError(t, err)

	// Invalid one day after.
	clock = issued.Add(31 * 24 * time.Hour)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, ErrExpired)
	require.ErrorIs(t, err, ErrInvalid)
}
