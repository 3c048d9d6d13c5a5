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

package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserId_RoundTrip(t *testing.T) {
	id := NewUserId()
	assert.False(t, id.IsZero())
	assert.Len(t, id.String(), encodedLength)

	parsed, err := ParseUserId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestPlayerId_RoundTrip(t *testing.T) {
	id := NewPlayerId()
	parsed, err := ParsePlayerId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestGameId_RoundTrip(t *testing.T) {
	id := NewGameId()
	parsed, err := ParseGameId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParse_RejectsMalformed(t *testing.T) {
	_, err := ParseUserId("too-short")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseGameId("")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParse_IsCaseInsensitive(t *testing.T) {
	id := NewUserId()
	canonical := id.String()
	lower := ""
	for _, c := range canonical {
		if c >= 'A' && c <= 'Z' {
			lower += string(c + ('a' - 'A'))
		} else {
			lower += string(c)
		}
	}
	parsed, err := ParseUserId(lower)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestZeroValueIsZero(t *testing.T) {
	var id UserId
	assert.True(t, id.IsZero())
	assert.NotEqual(t, NewUserId(), id)
}

func TestIdsAreDistinctAcrossCalls(t *testing.T) {
	a := NewUserId()
	b := NewUserId()
	assert.NotEqual(t, a, b)
}

func TestMarshalUnmarshalText(t *testing.T) {
	id := NewGameId()
	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(text))

	var decoded GameId
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)
}

func TestUnmarshalText_Invalid(t *testing.T) {
	var id PlayerId
	err := id.UnmarshalText([]byte("not-a-valid-id"))
	assert.Error(t, err)
}
