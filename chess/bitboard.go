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

import "math/bits"

// Bitboard is a 64-bit set of squares, bit i corresponding to Square i.
type Bitboard uint64

// EmptyBb is the bitboard with no squares set.
const EmptyBb Bitboard = 0

// SquareBb returns the singleton bitboard for sq.
func SquareBb(sq Square) Bitboard {
	return Bitboard(1) << uint(sq)
}

// PushSquare sets sq in bb and returns the result.
func (bb Bitboard) PushSquare(sq Square) Bitboard {
	return bb | SquareBb(sq)
}

// PopSquare clears sq in bb and returns the result.
func (bb Bitboard) PopSquare(sq Square) Bitboard {
	return bb &^ SquareBb(sq)
}

// Has reports whether sq is set in bb.
func (bb Bitboard) Has(sq Square) bool {
	return bb&SquareBb(sq) != 0
}

// Lsb returns the lowest-index set square, or SqNone if bb is empty.
func (bb Bitboard) Lsb() Square {
	if bb == 0 {
		return SqNone
	}
	return Square(bits.TrailingZeros64(uint64(bb)))
}

// PopLsb returns the lowest-index set square together with bb with that
// square cleared. Used to iterate a bitboard's squares one at a time.
func (bb Bitboard) PopLsb() (Square, Bitboard) {
	sq := bb.Lsb()
	if sq == SqNone {
		return SqNone, bb
	}
	return sq, bb.PopSquare(sq)
}

// PopCount returns the number of set squares in bb.
func (bb Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(bb))
}

// ShiftBitboard shifts every set square of bb one step in direction d,
// dropping any square the step would push off the board (same edge
// semantics as Square.To).
func ShiftBitboard(bb Bitboard, d Direction) Bitboard {
	var result Bitboard
	for b := bb; b != EmptyBb; {
		var sq Square
		sq, b = b.PopLsb()
		if to := sq.To(d); to != SqNone {
			result = result.PushSquare(to)
		}
	}
	return result
}

var (
	fileBb [8]Bitboard
	rankBb [8]Bitboard
)

func init() {
	for sq := SqA1; sq < SqNone; sq++ {
		fileBb[sq.FileOf()] = fileBb[sq.FileOf()].PushSquare(sq)
		rankBb[sq.RankOf()] = rankBb[sq.RankOf()].PushSquare(sq)
	}
}

// FileBb returns the bitboard of all squares on file f.
func FileBb(f File) Bitboard {
	return fileBb[f]
}

// RankBb returns the bitboard of all squares on rank r.
func RankBb(r Rank) Bitboard {
	return rankBb[r]
}
