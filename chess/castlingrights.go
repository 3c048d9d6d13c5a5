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

// CastlingRights is a bitmask of the four castling privileges that
// survive independently of each other as rooks and kings move.
type CastlingRights uint8

// The four individual castling rights. Names follow the wire-protocol
// vocabulary (kingside/queenside per side).
const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling     CastlingRights = 0
	AllCastlingOK  CastlingRights = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

// Has reports whether cr includes the given right.
func (cr CastlingRights) Has(right CastlingRights) bool {
	return cr&right != 0
}

// Remove returns cr with the given right(s) cleared.
func (cr CastlingRights) Remove(rights CastlingRights) CastlingRights {
	return cr &^ rights
}

// RightsLostBySquare returns the castling rights that are permanently
// lost the moment a piece leaves (or a rook is captured on) sq. A king
// move clears both of that side's rights; a rook move or capture on its
// home square clears only that one right.
func RightsLostBySquare(sq Square) CastlingRights {
	switch sq {
	case SqE1:
		return WhiteKingside | WhiteQueenside
	case SqA1:
		return WhiteQueenside
	case SqH1:
		return WhiteKingside
	case SqE8:
		return BlackKingside | BlackQueenside
	case SqA8:
		return BlackQueenside
	case SqH8:
		return BlackKingside
	default:
		return NoCastling
	}
}

// String renders cr in FEN castling-availability notation, e.g. "KQkq"
// or "-" when no rights remain.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr.Has(WhiteKingside) {
		s += "K"
	}
	if cr.Has(WhiteQueenside) {
		s += "Q"
	}
	if cr.Has(BlackKingside) {
		s += "k"
	}
	if cr.Has(BlackQueenside) {
		s += "q"
	}
	return s
}

// CastlingRightsFromFEN parses the FEN castling-availability field. Any
// character outside KQkq, an empty field, or a "-" combined with other
// characters is rejected.
func CastlingRightsFromFEN(s string) (CastlingRights, error) {
	var cr CastlingRights
	if s == "-" {
		return cr, nil
	}
	if s == "" {
		return cr, fmt.Errorf("chess: empty castling field")
	}
	for _, c := range s {
		switch c {
		case 'K':
			cr |= WhiteKingside
		case 'Q':
			cr |= WhiteQueenside
		case 'k':
			cr |= BlackKingside
		case 'q':
			cr |= BlackQueenside
		default:
			return NoCastling, fmt.Errorf("chess: bad castling character %q", c)
		}
	}
	return cr, nil
}
