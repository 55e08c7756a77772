// Package cursor encodes keyset pagination boundaries as opaque tokens.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned for tokens that do not decode.
var ErrMalformed = errors.New("malformed cursor")

const version = "v1"

// Direction says which side of the boundary the next page lies on.
type Direction string

// Directions.
const (
	// Older pages hold records strictly before the boundary.
	Older Direction = "o"
	// Newer pages hold records strictly after the boundary.
	Newer Direction = "n"
)

// Cursor is a (sort value, id) boundary plus a direction. Records compare on
// the tuple, so equal timestamps never skip or repeat records.
type Cursor struct {
	sort      string
	value     time.Time
	id        int64
	direction Direction
}

// New creates a cursor at the record (value, id).
func New(sort string, value time.Time, id int64, d Direction) Cursor {
	return Cursor{sort: sort, value: value.UTC().Truncate(time.Microsecond), id: id, direction: d}
}

// Before returns a cursor selecting records strictly older than t.
func Before(sort string, t time.Time) Cursor {
	return New(sort, t, 0, Older)
}

// After returns a cursor selecting records strictly newer than t.
func After(sort string, t time.Time) Cursor {
	return New(sort, t, math.MaxInt64, Newer)
}

// Sort returns the sort field the cursor was issued for.
func (c Cursor) Sort() string { return c.sort }

// Value returns the sort column value at the boundary.
func (c Cursor) Value() time.Time { return c.value }

// ID returns the record id at the boundary.
func (c Cursor) ID() int64 { return c.id }

// Direction returns the paging direction.
func (c Cursor) Direction() Direction { return c.direction }

// Encode renders the cursor as a URL-safe token.
func (c Cursor) Encode() string {
	raw := strings.Join([]string{
		version,
		c.sort,
		string(c.direction),
		strconv.FormatInt(c.value.UnixMicro(), 10),
		strconv.FormatInt(c.id, 10),
	}, ":")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode.
func Decode(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 5 || parts[0] != version || parts[1] == "" {
		return Cursor{}, ErrMalformed
	}

	d := Direction(parts[2])
	if d != Older && d != Newer {
		return Cursor{}, fmt.Errorf("%w: direction %q", ErrMalformed, parts[2])
	}
	micros, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: value: %w", ErrMalformed, err)
	}
	id, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: id: %w", ErrMalformed, err)
	}
	return New(parts[1], time.UnixMicro(micros), id, d), nil
}
