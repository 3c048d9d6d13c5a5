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

import "github.com/frankkopp/chessserver/assert"

// RuleEngine computes legal moves and terminal conditions for a
// Position under FIDE rules. It holds no state of its own; every
// method is a pure function of the Position(s) it is given.
type RuleEngine struct{}

// NewRuleEngine returns a RuleEngine. It is a stateless value and a
// single instance can be shared across games and goroutines.
func NewRuleEngine() RuleEngine {
	return RuleEngine{}
}

// attacksFromSquare returns the bitboard of squares attacked by a piece
// of type pt and color c standing on sq, ignoring whether those squares
// hold a friendly piece. occupied is the full-board occupancy used to
// stop sliding pieces.
func attacksFromSquare(sq Square, pt PieceType, c Color, occupied Bitboard) Bitboard {
	var attacks Bitboard
	switch pt {
	case King:
		for _, d := range allDirections {
			if to := sq.To(d); to != SqNone {
				attacks = attacks.PushSquare(to)
			}
		}
	case Knight:
		for _, off := range knightOffsets {
			to := int(sq) + off
			if to < 0 || to >= SqLength {
				continue
			}
			if SquareDistance(sq, Square(to)) <= 2 {
				attacks = attacks.PushSquare(Square(to))
			}
		}
	case Rook:
		for _, d := range rookDirections {
			attacks |= rayAttacks(sq, d, occupied)
		}
	case Bishop:
		for _, d := range bishopDirections {
			attacks |= rayAttacks(sq, d, occupied)
		}
	case Queen:
		for _, d := range rookDirections {
			attacks |= rayAttacks(sq, d, occupied)
		}
		for _, d := range bishopDirections {
			attacks |= rayAttacks(sq, d, occupied)
		}
	case Pawn:
		for _, d := range pawnCaptureDirections(c) {
			if to := sq.To(d); to != SqNone {
				attacks = attacks.PushSquare(to)
			}
		}
	}
	return attacks
}

var allDirections = [8]Direction{North, East, South, West, Northeast, Southeast, Southwest, Northwest}

func pawnCaptureDirections(c Color) [2]Direction {
	if c == White {
		return [2]Direction{Northeast, Northwest}
	}
	return [2]Direction{Southeast, Southwest}
}

// rayAttacks walks from sq in direction d until the board edge or the
// first occupied square (inclusive of that square, so captures work).
func rayAttacks(sq Square, d Direction, occupied Bitboard) Bitboard {
	var attacks Bitboard
	cur := sq
	for {
		next := cur.To(d)
		if next == SqNone {
			break
		}
		attacks = attacks.PushSquare(next)
		if occupied.Has(next) {
			break
		}
		cur = next
	}
	return attacks
}

// isSquareAttacked reports whether sq is attacked by any piece of color
// by in pos.
func isSquareAttacked(pos Position, sq Square, by Color) bool {
	occupied := pos.Occupied()
	for pt := King; pt < ptLength; pt++ {
		bb := pos.PieceBb(by, pt)
		for bb != EmptyBb {
			var from Square
			from, bb = bb.PopLsb()
			if attacksFromSquare(from, pt, by, occupied).Has(sq) {
				return true
			}
		}
	}
	return false
}

// IsInCheck reports whether c's king is currently attacked.
func (RuleEngine) IsInCheck(pos Position, c Color) bool {
	king := pos.KingSquare(c)
	if king == SqNone {
		return false
	}
	return isSquareAttacked(pos, king, c.Flip())
}

// pseudoLegalMoves generates every move for the side to move that obeys
// piece-movement rules, without checking whether it leaves the mover's
// own king in check.
func pseudoLegalMoves(pos Position) []Move {
	us := pos.SideToMove()
	occupied := pos.Occupied()
	ownPieces := pos.OccupiedBy(us)

	var moves []Move

	addSliderOrLeaper := func(from Square, pt PieceType) {
		targets := attacksFromSquare(from, pt, us, occupied) &^ ownPieces
		for targets != EmptyBb {
			var to Square
			to, targets = targets.PopLsb()
			moves = append(moves, Move{From: from, To: to})
		}
	}

	for pt := King; pt <= Queen; pt++ {
		if pt == Pawn {
			continue
		}
		bb := pos.PieceBb(us, pt)
		for bb != EmptyBb {
			var from Square
			from, bb = bb.PopLsb()
			addSliderOrLeaper(from, pt)
		}
	}

	moves = append(moves, pawnMoves(pos, us)...)
	moves = append(moves, castlingMoves(pos, us, occupied)...)

	return moves
}

func pawnMoves(pos Position, us Color) []Move {
	them := us.Flip()
	push := us.pawnPushDirection()
	startRank := us.pawnStartRank()
	promoRank := us.promotionRank()
	occupied := pos.Occupied()
	enemy := pos.OccupiedBy(them)

	var moves []Move
	pawns := pos.PieceBb(us, Pawn)
	for pawns != EmptyBb {
		var from Square
		from, pawns = pawns.PopLsb()

		addWithPromotions := func(to Square) {
			if to.RankOf() == promoRank {
				for _, pt := range []PieceType{Queen, Rook, Bishop, Knight} {
					moves = append(moves, Move{From: from, To: to, Promotion: pt})
				}
			} else {
				moves = append(moves, Move{From: from, To: to})
			}
		}

		if one := from.To(push); one != SqNone && !occupied.Has(one) {
			addWithPromotions(one)
			if from.RankOf() == startRank {
				if two := one.To(push); two != SqNone && !occupied.Has(two) {
					moves = append(moves, Move{From: from, To: two})
				}
			}
		}

		for _, d := range pawnCaptureDirections(us) {
			to := from.To(d)
			if to == SqNone {
				continue
			}
			if enemy.Has(to) {
				addWithPromotions(to)
			} else if to == pos.EnPassantTarget() {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

func castlingMoves(pos Position, us Color, occupied Bitboard) []Move {
	them := us.Flip()
	var moves []Move

	tryCastle := func(right CastlingRights, kingFrom, kingTo Square, emptySquares []Square, kingPath []Square) {
		if !pos.CastlingRights().Has(right) {
			return
		}
		for _, sq := range emptySquares {
			if occupied.Has(sq) {
				return
			}
		}
		for _, sq := range kingPath {
			if isSquareAttacked(pos, sq, them) {
				return
			}
		}
		moves = append(moves, Move{From: kingFrom, To: kingTo})
	}

	if us == White {
		tryCastle(WhiteKingside, SqE1, SqG1, []Square{SqF1, SqG1}, []Square{SqE1, SqF1, SqG1})
		tryCastle(WhiteQueenside, SqE1, SqC1, []Square{SqB1, SqC1, SqD1}, []Square{SqE1, SqD1, SqC1})
	} else {
		tryCastle(BlackKingside, SqE8, SqG8, []Square{SqF8, SqG8}, []Square{SqE8, SqF8, SqG8})
		tryCastle(BlackQueenside, SqE8, SqC8, []Square{SqB8, SqC8, SqD8}, []Square{SqE8, SqD8, SqC8})
	}
	return moves
}

// LegalMoves returns every legal move for the side to move: each
// pseudo-legal move that, once played, does not leave the mover's own
// king in check. The order is deterministic: king, knight, bishop, rook
// and queen moves by ascending from-square, then pawn moves by ascending
// from-square (promotions Q, R, B, N), then castling kingside before
// queenside.
func (re RuleEngine) LegalMoves(pos Position) []Move {
	us := pos.SideToMove()
	candidates := pseudoLegalMoves(pos)
	legal := make([]Move, 0, len(candidates))
	for _, m := range candidates {
		next := pos.ApplyMove(m)
		if assert.DEBUG {
			assert.Assert(next.SideToMove() == us.Flip(), "applying %s did not flip side to move", m)
		}
		if !re.IsInCheck(next, us) {
			legal = append(legal, m)
		}
	}
	return legal
}

// IsCheckmate reports whether the side to move has no legal moves and
// is in check.
func (re RuleEngine) IsCheckmate(pos Position) bool {
	return re.IsInCheck(pos, pos.SideToMove()) && len(re.LegalMoves(pos)) == 0
}

// IsStalemate reports whether the side to move has no legal moves and
// is not in check.
func (re RuleEngine) IsStalemate(pos Position) bool {
	return !re.IsInCheck(pos, pos.SideToMove()) && len(re.LegalMoves(pos)) == 0
}

// IsFiftyMoveDraw reports whether the halfmove clock has reached the
// 100-halfmove (fifty full move) threshold.
func (RuleEngine) IsFiftyMoveDraw(pos Position) bool {
	return pos.HalfmoveClock() >= 100
}

// IsThreefoldRepetition reports whether current, together with its
// preceding history, has occurred at least three times.
func (RuleEngine) IsThreefoldRepetition(history []Position, current Position) bool {
	count := 1
	for _, p := range history {
		if p.SameRepetitionPosition(current) {
			count++
		}
	}
	return count >= 3
}

// IsInsufficientMaterial reports whether neither side has enough
// material to deliver checkmate by any sequence of legal moves: king
// vs king, king+minor vs king, or king+bishop vs king+bishop with
// same-colored bishops.
func (RuleEngine) IsInsufficientMaterial(pos Position) bool {
	for _, c := range [2]Color{White, Black} {
		if pos.PieceBb(c, Pawn) != EmptyBb ||
			pos.PieceBb(c, Rook) != EmptyBb ||
			pos.PieceBb(c, Queen) != EmptyBb {
			return false
		}
	}

	whiteMinors := pos.PieceBb(White, Knight).PopCount() + pos.PieceBb(White, Bishop).PopCount()
	blackMinors := pos.PieceBb(Black, Knight).PopCount() + pos.PieceBb(Black, Bishop).PopCount()

	if whiteMinors == 0 && blackMinors == 0 {
		return true
	}
	if whiteMinors+blackMinors == 1 {
		return true
	}
	if whiteMinors == 1 && blackMinors == 1 {
		wKnights := pos.PieceBb(White, Knight).PopCount()
		bKnights := pos.PieceBb(Black, Knight).PopCount()
		if wKnights == 1 || bKnights == 1 {
			return false
		}
		wBishop := pos.PieceBb(White, Bishop).Lsb()
		bBishop := pos.PieceBb(Black, Bishop).Lsb()
		return squareColor(wBishop) == squareColor(bBishop)
	}
	return false
}

// squareColor returns 0 for a dark square and 1 for a light square,
// used to tell same-colored bishops apart for the insufficient-material
// draw rule.
func squareColor(sq Square) int {
	return (int(sq.FileOf()) + int(sq.RankOf())) & 1
}
