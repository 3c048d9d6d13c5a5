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

package chess

import "fmt"

// Color is White or Black.
type Color uint8

// The two sides.
const (
	White Color = 0
	Black Color = 1
)

// Flip returns the opposite color.
func (c Color) Flip() Color {
	return c ^ 1
}

// IsValid checks if c represents a valid color.
func (c Color) IsValid() bool {
	return c < 2
}

// String returns "WHITE" or "BLACK", the wire-protocol spelling.
func (c Color) String() string {
	switch c {
	case White:
		return "WHITE"
	case Black:
		return "BLACK"
	default:
		panic(fmt.Sprintf("chess: invalid color %d", c))
	}
}

// FENChar returns "w" or "b", the FEN side-to-move spelling.
func (c Color) FENChar() string {
	if c == White {
		return "w"
	}
	return "b"
}

// pawnPushDirection returns the direction a pawn of this color advances.
func (c Color) pawnPushDirection() Direction {
	if c == White {
		return North
	}
	return South
}

// pawnStartRank returns the rank pawns of this color start on.
func (c Color) pawnStartRank() Rank {
	if c == White {
		return Rank2
	}
	return Rank7
}

// promotionRank returns the last rank a pawn of this color promotes on.
func (c Color) promotionRank() Rank {
	if c == White {
		return Rank8
	}
	return Rank1
}
