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

// Move is a single chess move expressed as its from/to squares plus an
// optional promotion piece type. It carries no information about what
// it captures or whether it castles; the Position that plays it derives
// that from board state.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
}

// IsValid checks that From and To are distinct, valid squares and that
// Promotion, if set, is one of the four legal promotion pieces.
func (m Move) IsValid() bool {
	if !m.From.IsValid() || !m.To.IsValid() || m.From == m.To {
		return false
	}
	if m.Promotion != PtNone && !m.Promotion.IsValidPromotion() {
		return false
	}
	return true
}

// String renders m in UCI-style coordinate notation, e.g. "e2e4" or
// "e7e8q" for a promotion.
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != PtNone {
		s += string(m.Promotion.Char() + ('a' - 'A'))
	}
	return s
}

// MakeMove parses a UCI-style coordinate move string such as "e2e4" or
// "a7a8q". It returns a Move whose IsValid reports false if s is
// malformed.
func MakeMove(s string) Move {
	if len(s) != 4 && len(s) != 5 {
		return Move{From: SqNone, To: SqNone}
	}
	from := MakeSquare(s[0:2])
	to := MakeSquare(s[2:4])
	promo := PtNone
	if len(s) == 5 {
		promo = PieceTypeFromChar(s[4] - ('a' - 'A'))
		if promo == PtNone {
			return Move{From: SqNone, To: SqNone}
		}
	}
	return Move{From: from, To: to, Promotion: promo}
}
