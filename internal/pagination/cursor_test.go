package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 891011, time.UTC)

	decoded, err := DecodeCursor(EncodeCursor(ts, 42))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, ts.Equal(decoded.Timestamp))
	assert.Equal(t, int64(42), decoded.Seq)
}

func TestDecodeCursor_Empty(t *testing.T) {
	c, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString

	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "%%%"},
		{"no separator", enc([]byte("2026-01-01T00:00:00Z"))},
		{"bad timestamp", enc([]byte("yesterday|1"))},
		{"bad seq", enc([]byte("2026-01-01T00:00:00Z|abc"))},
		{"negative seq", enc([]byte("2026-01-01T00:00:00Z|-3"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}
