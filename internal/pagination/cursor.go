package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Cursor is a decoded keyset position: the timestamp and sequence number of
// the last item returned.
type Cursor struct {
	Timestamp time.Time
	Seq       int64
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
)

// EncodeCursor creates an opaque base64 cursor from a timestamp and sequence number
func EncodeCursor(timestamp time.Time, seq int64) string {
	raw := timestamp.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatInt(seq, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a cursor produced by EncodeCursor.
// An empty string decodes to a nil cursor, meaning "from the start".
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || seq < 0 {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		Timestamp: timestamp,
		Seq:       seq,
	}, nil
}
