/*
 * MIT License
 *
 * Copyright (c) 2018-2020 Frank Kopp
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package ids defines the three identifier types used across the
// server (users, players and games) and a shared, time-ordered,
// Crockford base32 encoding for them. Keeping the types distinct
// prevents a GameId from ever being passed where a UserId is expected.
package ids

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when parsing a malformed identifier string.
var ErrInvalidID = errors.New("ids: invalid identifier")

const (
	encodedLength = 26
	crockford     = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// raw is the 128-bit value shared by every identifier type: a 48-bit
// millisecond timestamp followed by the first 80 bits of a version-4
// UUID (74 of them random; the rest are the UUID's fixed version and
// variant bits), the same shape as a ULID. The timestamp prefix keeps IDs roughly sortable by
// creation time without a database needing a separate created_at index.
type raw [16]byte

func newRaw(now time.Time) raw {
	var r raw
	ms := uint64(now.UnixMilli())
	r[0] = byte(ms >> 40)
	r[1] = byte(ms >> 32)
	r[2] = byte(ms >> 24)
	r[3] = byte(ms >> 16)
	r[4] = byte(ms >> 8)
	r[5] = byte(ms)

	entropy := uuid.New()
	copy(r[6:], entropy[:10])
	return r
}

// The 128 bits of raw don't divide evenly into 5-bit groups, so the
// encoding treats the value as if it carried 2 leading zero bits,
// making a 130-bit stream that splits into exactly 26 groups.
const paddingBits = 2

func (r raw) encode() string {
	var sb strings.Builder
	sb.Grow(encodedLength)
	for i := 0; i < encodedLength; i++ {
		var val byte
		for b := 0; b < 5; b++ {
			p := i*5 + b
			var bit byte
			if p >= paddingBits {
				real := p - paddingBits
				bit = (r[real/8] >> (7 - uint(real%8))) & 1
			}
			val = (val << 1) | bit
		}
		sb.WriteByte(crockford[val])
	}
	return sb.String()
}

func decodeRaw(s string) (raw, error) {
	if len(s) != encodedLength {
		return raw{}, ErrInvalidID
	}
	var out raw
	for i := 0; i < encodedLength; i++ {
		idx := strings.IndexByte(crockford, upper(s[i]))
		if idx < 0 {
			return raw{}, ErrInvalidID
		}
		for b := 0; b < 5; b++ {
			p := i*5 + b
			if p < paddingBits {
				continue
			}
			bit := byte(idx>>(4-b)) & 1
			if bit != 0 {
				real := p - paddingBits
				out[real/8] |= 1 << (7 - uint(real%8))
			}
		}
	}
	return out, nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// UserId identifies a registered or anonymous connecting user.
type UserId struct{ v raw }

// PlayerId identifies one side's seat within a single game.
type PlayerId struct{ v raw }

// GameId identifies a single game instance.
type GameId struct{ v raw }

// NewUserId generates a new, time-ordered UserId.
func NewUserId() UserId { return UserId{v: newRaw(timeNow())} }

// NewPlayerId generates a new, time-ordered PlayerId.
func NewPlayerId() PlayerId { return PlayerId{v: newRaw(timeNow())} }

// NewGameId generates a new, time-ordered GameId.
func NewGameId() GameId { return GameId{v: newRaw(timeNow())} }

func (id UserId) String() string   { return id.v.encode() }
func (id PlayerId) String() string { return id.v.encode() }
func (id GameId) String() string   { return id.v.encode() }

// IsZero reports whether id is the zero value (never assigned).
func (id UserId) IsZero() bool { return id.v == raw{} }

// IsZero reports whether id is the zero value (never assigned).
func (id PlayerId) IsZero() bool { return id.v == raw{} }

// IsZero reports whether id is the zero value (never assigned).
func (id GameId) IsZero() bool { return id.v == raw{} }

// ParseUserId parses the canonical string form of a UserId.
func ParseUserId(s string) (UserId, error) {
	r, err := decodeRaw(s)
	if err != nil {
		return UserId{}, err
	}
	return UserId{v: r}, nil
}

// ParsePlayerId parses the canonical string form of a PlayerId.
func ParsePlayerId(s string) (PlayerId, error) {
	r, err := decodeRaw(s)
	if err != nil {
		return PlayerId{}, err
	}
	return PlayerId{v: r}, nil
}

// ParseGameId parses the canonical string form of a GameId.
func ParseGameId(s string) (GameId, error) {
	r, err := decodeRaw(s)
	if err != nil {
		return GameId{}, err
	}
	return GameId{v: r}, nil
}

// timeNow exists so tests can be reasoned about without a clock
// collaborator leaking into every constructor signature; it is the
// only place in the package that reads the system clock.
func timeNow() time.Time { return time.Now() }

// MarshalText implements encoding.TextMarshaler so identifiers can be
// used directly as JSON string fields and as map keys.
func (id UserId) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *UserId) UnmarshalText(text []byte) error {
	parsed, err := ParseUserId(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (id PlayerId) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PlayerId) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayerId(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (id GameId) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *GameId) UnmarshalText(text []byte) error {
	parsed, err := ParseGameId(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
