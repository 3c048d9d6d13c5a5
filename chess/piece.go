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

// Piece packs a Color and a PieceType into a single board-square value.
// PieceNone represents an empty square.
type Piece int8

// PieceNone marks an empty square.
const PieceNone Piece = 0

// MakePiece combines a color and piece type into a Piece. Passing
// PtNone always yields PieceNone regardless of color.
func MakePiece(c Color, pt PieceType) Piece {
	if pt == PtNone {
		return PieceNone
	}
	return Piece(int8(pt)<<1 | int8(c))
}

// TypeOf returns the piece type, or PtNone for PieceNone.
func (p Piece) TypeOf() PieceType {
	if p == PieceNone {
		return PtNone
	}
	return PieceType(p >> 1)
}

// ColorOf returns the color of p. Undefined for PieceNone.
func (p Piece) ColorOf() Color {
	return Color(p & 1)
}

// IsValid checks whether p is a non-empty, well-formed piece.
func (p Piece) IsValid() bool {
	return p != PieceNone && p.TypeOf().IsValid()
}

// String returns the FEN piece letter: uppercase for White, lowercase
// for Black, or "-" for PieceNone.
func (p Piece) String() string {
	if p == PieceNone {
		return "-"
	}
	c := p.TypeOf().Char()
	if p.ColorOf() == Black {
		return string(c + ('a' - 'A'))
	}
	return string(c)
}

// PieceFromFENChar parses a single FEN board-character ("K","p", etc.)
// into a Piece. Returns PieceNone for an unrecognized character.
func PieceFromFENChar(c byte) Piece {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	pt := PieceTypeFromChar(c)
	if pt == PtNone {
		return PieceNone
	}
	return MakePiece(color, pt)
}
