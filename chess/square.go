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

// Package chess implements the bitboard chess position, legal-move
// generator and terminal-condition predicates that back every live game.
package chess

import "fmt"

// File represents a chess board file a-h.
type File uint8

// Files a-h plus the sentinel FileNone.
const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
	FileNone
)

// IsValid checks if f represents a valid file.
func (f File) IsValid() bool {
	return f < FileNone
}

const fileLabels = "abcdefgh"

// String returns the file letter (a-h), or "-" if invalid.
func (f File) String() string {
	if !f.IsValid() {
		return "-"
	}
	return string(fileLabels[f])
}

// Rank represents a chess board rank 1-8.
type Rank uint8

// Ranks 1-8 plus the sentinel RankNone.
const (
	Rank1 Rank = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	RankNone
)

// IsValid checks if r represents a valid rank.
func (r Rank) IsValid() bool {
	return r < RankNone
}

const rankLabels = "12345678"

// String returns the rank digit (1-8), or "-" if invalid.
func (r Rank) String() string {
	if !r.IsValid() {
		return "-"
	}
	return string(rankLabels[r])
}

// Square represents exactly one square on the chess board. Bit i of a
// Bitboard corresponds to Square i, with i = 8*rank + file and SqA1 = 0.
type Square uint8

// SqNone is the sentinel "no square" value.
const (
	SqA1 Square = iota
	SqB1
	SqC1
	SqD1
	SqE1
	SqF1
	SqG1
	SqH1
	SqA2
	SqB2
	SqC2
	SqD2
	SqE2
	SqF2
	SqG2
	SqH2
	SqA3
	SqB3
	SqC3
	SqD3
	SqE3
	SqF3
	SqG3
	SqH3
	SqA4
	SqB4
	SqC4
	SqD4
	SqE4
	SqF4
	SqG4
	SqH4
	SqA5
	SqB5
	SqC5
	SqD5
	SqE5
	SqF5
	SqG5
	SqH5
	SqA6
	SqB6
	SqC6
	SqD6
	SqE6
	SqF6
	SqG6
	SqH6
	SqA7
	SqB7
	SqC7
	SqD7
	SqE7
	SqF7
	SqG7
	SqH7
	SqA8
	SqB8
	SqC8
	SqD8
	SqE8
	SqF8
	SqG8
	SqH8
	SqNone
)

// SqLength is the number of squares on a board.
const SqLength = 64

// IsValid checks whether sq represents a valid square (sq < 64).
func (sq Square) IsValid() bool {
	return sq < SqNone
}

// FileOf returns the file of the square.
func (sq Square) FileOf() File {
	return File(sq & 7)
}

// RankOf returns the rank of the square.
func (sq Square) RankOf() Rank {
	return Rank(sq >> 3)
}

// SquareOf returns the square for the given file and rank, or SqNone if
// either is invalid.
func SquareOf(f File, r Rank) Square {
	if !f.IsValid() || !r.IsValid() {
		return SqNone
	}
	return Square((int(r) << 3) + int(f))
}

// MakeSquare parses a two-character algebraic square (e.g. "e4") and
// returns SqNone if the string is not a valid square.
func MakeSquare(s string) Square {
	if len(s) != 2 {
		return SqNone
	}
	file := File(s[0] - 'a')
	rank := Rank(s[1] - '1')
	if !file.IsValid() || !rank.IsValid() {
		return SqNone
	}
	return SquareOf(file, rank)
}

// String returns the algebraic representation of sq (e.g. "e4"), or "-"
// if sq is not valid.
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return sq.FileOf().String() + sq.RankOf().String()
}

// To returns the square one step away from sq in direction d, or SqNone
// if that step would leave the board. Sliding-piece attack generation
// walks this one square at a time until it returns SqNone or hits a piece.
func (sq Square) To(d Direction) Square {
	switch d {
	case East, Northeast, Southeast:
		if sq.FileOf() == FileH {
			return SqNone
		}
	case West, Northwest, Southwest:
		if sq.FileOf() == FileA {
			return SqNone
		}
	case North, South:
		// only board-edge overflow needs checking, handled below
	default:
		panic(fmt.Sprintf("chess: invalid direction %d", d))
	}
	next := int(sq) + int(d)
	if next < 0 || next >= SqLength {
		return SqNone
	}
	return Square(next)
}

// SquareDistance returns the Chebyshev distance in squares between s1
// and s2 (used to reject knight jumps that wrap around the board edge
// and to recognise castling and pawn double-push moves).
func SquareDistance(s1, s2 Square) int {
	fd := absInt(int(s1.FileOf()) - int(s2.FileOf()))
	rd := absInt(int(s1.RankOf()) - int(s2.RankOf()))
	if fd > rd {
		return fd
	}
	return rd
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
