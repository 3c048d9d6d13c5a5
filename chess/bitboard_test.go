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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitboard_PushPopHas(t *testing.T) {
	bb := EmptyBb.PushSquare(SqE4).PushSquare(SqA1)
	assert.True(t, bb.Has(SqE4))
	assert.True(t, bb.Has(SqA1))
	assert.False(t, bb.Has(SqH8))
	assert.Equal(t, 2, bb.PopCount())

	bb = bb.PopSquare(SqA1)
	assert.False(t, bb.Has(SqA1))
	assert.Equal(t, 1, bb.PopCount())
}

func TestBitboard_LsbIteration(t *testing.T) {
	bb := EmptyBb.PushSquare(SqC3).PushSquare(SqA1).PushSquare(SqH8)

	var squares []Square
	for bb != EmptyBb {
		var sq Square
		sq, bb = bb.PopLsb()
		squares = append(squares, sq)
	}
	assert.Equal(t, []Square{SqA1, SqC3, SqH8}, squares, "PopLsb walks squares in ascending index order")

	sq, rest := EmptyBb.PopLsb()
	assert.Equal(t, SqNone, sq)
	assert.Equal(t, EmptyBb, rest)
}

func TestShiftBitboard_DropsOffBoardSquares(t *testing.T) {
	bb := EmptyBb.PushSquare(SqH4).PushSquare(SqE4)

	east := ShiftBitboard(bb, East)
	assert.True(t, east.Has(SqF4))
	assert.False(t, east.Has(SqA5), "the h-file square must fall off, not wrap")
	assert.Equal(t, 1, east.PopCount())

	north := ShiftBitboard(EmptyBb.PushSquare(SqE8), North)
	assert.Equal(t, EmptyBb, north)
}

func TestFileAndRankBitboards(t *testing.T) {
	assert.Equal(t, 8, FileBb(FileA).PopCount())
	assert.True(t, FileBb(FileE).Has(SqE4))
	assert.False(t, FileBb(FileE).Has(SqD4))

	assert.Equal(t, 8, RankBb(Rank1).PopCount())
	assert.True(t, RankBb(Rank8).Has(SqA8))
	assert.False(t, RankBb(Rank8).Has(SqA7))
}
