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

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	g := game.New(ids.NewGameId(), ids.NewUserId(), ids.NewUserId(), time.Now())

	require.NoError(t, repo.Save(context.Background(), g))

	found, err := repo.FindByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)
	assert.Equal(t, g.Position().ToFEN(), found.Position().ToFEN())
}

func TestMemoryRepository_FindMissing(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.FindByID(context.Background(), ids.NewGameId())
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestMemoryRepository_SaveOverwrites(t *testing.T) {
	repo := NewMemoryRepository()
	g := game.New(ids.NewGameId(), ids.NewUserId(), ids.NewUserId(), time.Now())
	require.NoError(t, repo.Save(context.Background(), g))

	moved, err := g.ApplyMove(g.White.ID, chess.MakeMove("e2e4"), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), moved))

	found, err := repo.FindByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, found.History(), 1)
}
