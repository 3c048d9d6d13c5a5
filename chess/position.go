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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN of the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is returned by FromFEN when the given string cannot be
// parsed as a well-formed position.
var ErrInvalidFEN = errors.New("chess: invalid FEN")

// Position is an immutable snapshot of a chess board: piece placement,
// side to move, castling rights, en passant target and the two move
// clocks. Every mutator on Position returns a new value; none ever
// modifies the receiver.
type Position struct {
	pieces        [2][ptLength]Bitboard // [color][pieceType]
	sideToMove    Color
	castling      CastlingRights
	enPassant     Square // SqNone if not available
	halfmoveClock int
	fullmoveNum   int
}

// NewStartingPosition returns the standard chess starting position.
func NewStartingPosition() Position {
	pos, err := FromFEN(StartFEN)
	if err != nil {
		panic("chess: malformed built-in start FEN: " + err.Error())
	}
	return pos
}

// FromFEN parses a Forsyth-Edwards Notation string into a Position.
func FromFEN(fen string) (Position, error) {
	var pos Position
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) < 4 {
		return pos, fmt.Errorf("%w: %q: need at least 4 fields", ErrInvalidFEN, fen)
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return pos, fmt.Errorf("%w: %q: need 8 ranks", ErrInvalidFEN, fen)
	}
	for i, rankStr := range ranks {
		r := Rank(7 - i)
		f := FileA
		for _, c := range rankStr {
			switch {
			case c >= '1' && c <= '8':
				f += File(c - '0')
			default:
				p := PieceFromFENChar(byte(c))
				if p == PieceNone || !f.IsValid() {
					return pos, fmt.Errorf("%w: %q: bad piece placement", ErrInvalidFEN, fen)
				}
				sq := SquareOf(f, r)
				pos.pieces[p.ColorOf()][p.TypeOf()] = pos.pieces[p.ColorOf()][p.TypeOf()].PushSquare(sq)
				f++
			}
		}
		if f != FileNone {
			return pos, fmt.Errorf("%w: %q: rank %s does not cover 8 files", ErrInvalidFEN, fen, r)
		}
	}

	if pos.pieces[White][King].PopCount() != 1 || pos.pieces[Black][King].PopCount() != 1 {
		return pos, fmt.Errorf("%w: %q: each side needs exactly one king", ErrInvalidFEN, fen)
	}

	switch fields[1] {
	case "w":
		pos.sideToMove = White
	case "b":
		pos.sideToMove = Black
	default:
		return pos, fmt.Errorf("%w: %q: bad side to move", ErrInvalidFEN, fen)
	}

	castling, err := CastlingRightsFromFEN(fields[2])
	if err != nil {
		return pos, fmt.Errorf("%w: %q: bad castling field", ErrInvalidFEN, fen)
	}
	pos.castling = castling

	if fields[3] == "-" {
		pos.enPassant = SqNone
	} else {
		pos.enPassant = MakeSquare(fields[3])
		if pos.enPassant == SqNone ||
			(pos.enPassant.RankOf() != Rank3 && pos.enPassant.RankOf() != Rank6) {
			return pos, fmt.Errorf("%w: %q: bad en passant square", ErrInvalidFEN, fen)
		}
	}

	pos.halfmoveClock = 0
	if len(fields) >= 5 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return pos, fmt.Errorf("%w: %q: bad halfmove clock", ErrInvalidFEN, fen)
		}
		pos.halfmoveClock = n
	}
	pos.fullmoveNum = 1
	if len(fields) >= 6 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return pos, fmt.Errorf("%w: %q: bad fullmove number", ErrInvalidFEN, fen)
		}
		pos.fullmoveNum = n
	}

	return pos, nil
}

// ToFEN renders the position back into Forsyth-Edwards Notation.
func (p Position) ToFEN() string {
	var sb strings.Builder
	for i := 7; i >= 0; i-- {
		r := Rank(i)
		empty := 0
		for f := FileA; f.IsValid(); f++ {
			sq := SquareOf(f, r)
			piece := p.PieceAt(sq)
			if piece == PieceNone {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if i > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(p.sideToMove.FENChar())
	sb.WriteByte(' ')
	sb.WriteString(p.castling.String())
	sb.WriteByte(' ')
	if p.enPassant == SqNone {
		sb.WriteByte('-')
	} else {
		sb.WriteString(p.enPassant.String())
	}
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.halfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.fullmoveNum))
	return sb.String()
}

// PieceAt returns the piece occupying sq, or PieceNone if it is empty.
func (p Position) PieceAt(sq Square) Piece {
	for c := White; c <= Black; c++ {
		for pt := King; pt < ptLength; pt++ {
			if p.pieces[c][pt].Has(sq) {
				return MakePiece(c, pt)
			}
		}
	}
	return PieceNone
}

// SideToMove returns the color to move.
func (p Position) SideToMove() Color { return p.sideToMove }

// CastlingRights returns the currently available castling rights.
func (p Position) CastlingRights() CastlingRights { return p.castling }

// EnPassantTarget returns the en passant capture square, or SqNone.
func (p Position) EnPassantTarget() Square { return p.enPassant }

// HalfmoveClock returns the number of halfmoves since the last capture
// or pawn move, for the fifty-move rule.
func (p Position) HalfmoveClock() int { return p.halfmoveClock }

// FullmoveNumber returns the current full move number.
func (p Position) FullmoveNumber() int { return p.fullmoveNum }

// OccupiedBy returns the bitboard of all pieces of color c.
func (p Position) OccupiedBy(c Color) Bitboard {
	var bb Bitboard
	for pt := King; pt < ptLength; pt++ {
		bb |= p.pieces[c][pt]
	}
	return bb
}

// Occupied returns the bitboard of all occupied squares.
func (p Position) Occupied() Bitboard {
	return p.OccupiedBy(White) | p.OccupiedBy(Black)
}

// PieceBb returns the bitboard of pieces of the given color and type.
func (p Position) PieceBb(c Color, pt PieceType) Bitboard {
	return p.pieces[c][pt]
}

// KingSquare returns the square occupied by c's king.
func (p Position) KingSquare(c Color) Square {
	return p.pieces[c][King].Lsb()
}

// repetitionKey is the subset of position state that defines
// "the same position" for threefold-repetition purposes: board
// placement, side to move, castling rights and en passant target.
// The two move clocks are deliberately excluded.
type repetitionKey struct {
	pieces    [2][ptLength]Bitboard
	side      Color
	castling  CastlingRights
	enPassant Square
}

func (p Position) repetitionKey() repetitionKey {
	return repetitionKey{
		pieces:    p.pieces,
		side:      p.sideToMove,
		castling:  p.castling,
		enPassant: p.enPassant,
	}
}

// SameRepetitionPosition reports whether p and other are identical for
// threefold-repetition purposes.
func (p Position) SameRepetitionPosition(other Position) bool {
	return p.repetitionKey() == other.repetitionKey()
}

// ApplyMove returns the Position that results from playing m in p. It
// does not verify legality; callers must validate m with RuleEngine
// first. ApplyMove never mutates p: it copies, mutates the copy and
// returns it, the way every Position transition in this package works.
func (p Position) ApplyMove(m Move) Position {
	next := p
	us := p.sideToMove
	them := us.Flip()
	moving := p.PieceAt(m.From)
	movingType := moving.TypeOf()

	next.enPassant = SqNone
	isCapture := p.PieceAt(m.To) != PieceNone
	isEnPassant := movingType == Pawn && m.To == p.enPassant && p.PieceAt(m.To) == PieceNone

	// Remove the moving piece from its origin square.
	next.pieces[us][movingType] = next.pieces[us][movingType].PopSquare(m.From)

	// Resolve captures, including en passant's off-target victim.
	if isEnPassant {
		capSq := m.To.To(us.Flip().pawnPushDirection())
		next.pieces[them][Pawn] = next.pieces[them][Pawn].PopSquare(capSq)
	} else if isCapture {
		capturedType := p.PieceAt(m.To).TypeOf()
		next.pieces[them][capturedType] = next.pieces[them][capturedType].PopSquare(m.To)
	}

	// Place the moving piece, accounting for promotion.
	placedType := movingType
	if movingType == Pawn && m.Promotion != PtNone {
		placedType = m.Promotion
	}
	next.pieces[us][placedType] = next.pieces[us][placedType].PushSquare(m.To)

	// Castling: move the matching rook alongside the king.
	if movingType == King && SquareDistance(m.From, m.To) == 2 {
		var rookFrom, rookTo Square
		switch m.To {
		case SqG1:
			rookFrom, rookTo = SqH1, SqF1
		case SqC1:
			rookFrom, rookTo = SqA1, SqD1
		case SqG8:
			rookFrom, rookTo = SqH8, SqF8
		case SqC8:
			rookFrom, rookTo = SqA8, SqD8
		}
		next.pieces[us][Rook] = next.pieces[us][Rook].PopSquare(rookFrom).PushSquare(rookTo)
	}

	// New en passant target: a pawn double push exposes the jumped square.
	if movingType == Pawn && SquareDistance(m.From, m.To) == 2 {
		next.enPassant = m.From.To(us.pawnPushDirection())
	}

	// Castling rights update: losing a right is permanent.
	next.castling = next.castling.Remove(RightsLostBySquare(m.From))
	next.castling = next.castling.Remove(RightsLostBySquare(m.To))

	if movingType == Pawn || isCapture || isEnPassant {
		next.halfmoveClock = 0
	} else {
		next.halfmoveClock++
	}

	if us == Black {
		next.fullmoveNum++
	}
	next.sideToMove = them

	return next
}
