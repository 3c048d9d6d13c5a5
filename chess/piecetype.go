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

// PieceType is one of the six chess piece types. PtNone marks an empty
// square or "no promotion".
type PieceType int8

const (
	PtNone PieceType = iota
	King
	Pawn
	Knight
	Bishop
	Rook
	Queen
	ptLength
)

// IsValid checks if pt is a valid, non-empty piece type.
func (pt PieceType) IsValid() bool {
	return pt > PtNone && pt < ptLength
}

var pieceTypeNames = [ptLength]string{"NONE", "KING", "PAWN", "KNIGHT", "BISHOP", "ROOK", "QUEEN"}

// String returns the wire-protocol spelling of the piece type
// (e.g. "QUEEN").
func (pt PieceType) String() string {
	if pt < PtNone || pt >= ptLength {
		return "NONE"
	}
	return pieceTypeNames[pt]
}

var pieceTypeChars = "-KPNBRQ"

// Char returns the single-letter FEN/SAN piece letter (uppercase).
func (pt PieceType) Char() byte {
	if pt < PtNone || pt >= ptLength {
		return '-'
	}
	return pieceTypeChars[pt]
}

// PieceTypeFromChar parses an uppercase FEN piece letter ("KPNBRQ") into
// a PieceType, or PtNone if the letter is not recognized.
func PieceTypeFromChar(c byte) PieceType {
	switch c {
	case 'K':
		return King
	case 'P':
		return Pawn
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	default:
		return PtNone
	}
}

// PromotionPieceTypeFromName parses the wire-protocol promotion spelling
// ("QUEEN", "ROOK", "BISHOP", "KNIGHT") into a PieceType.
func PromotionPieceTypeFromName(name string) (PieceType, bool) {
	switch name {
	case "QUEEN":
		return Queen, true
	case "ROOK":
		return Rook, true
	case "BISHOP":
		return Bishop, true
	case "KNIGHT":
		return Knight, true
	default:
		return PtNone, false
	}
}

// IsValidPromotion reports whether pt is one of the four pieces a pawn
// may promote to.
func (pt PieceType) IsValidPromotion() bool {
	switch pt {
	case Queen, Rook, Bishop, Knight:
		return true
	default:
		return false
	}
}
