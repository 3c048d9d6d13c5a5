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

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/store"
)

func TestManager_CreateGameStartsALiveHub(t *testing.T) {
	repo := store.NewMemoryRepository()
	m := NewManager(repo, Config{}, nil, nil)
	white, black := ids.NewUserId(), ids.NewUserId()

	gameID, err := m.CreateGame(context.Background(), white, black)
	require.NoError(t, err)
	assert.Equal(t, 1, m.LiveCount())

	h, err := m.Hub(context.Background(), gameID)
	require.NoError(t, err)
	require.NotNil(t, h)

	whitePlayerID, err := h.PlayerIDFor(white)
	require.NoError(t, err)
	assert.False(t, whitePlayerID.IsZero())
}

func TestManager_Hub_UnknownGameErrors(t *testing.T) {
	repo := store.NewMemoryRepository()
	m := NewManager(repo, Config{}, nil, nil)

	_, err := m.Hub(context.Background(), ids.NewGameId())
	assert.ErrorIs(t, err, store.ErrGameNotFound)
}

func TestManager_Hub_ColdStartsFromRepository(t *testing.T) {
	repo := store.NewMemoryRepository()
	white, black := ids.NewUserId(), ids.NewUserId()
	g := game.New(ids.NewGameId(), white, black, time.Now())
	require.NoError(t, repo.Save(context.Background(), g))

	m := NewManager(repo, Config{}, nil, nil)
	assert.Equal(t, 0, m.LiveCount(), "no hub has been started for this game yet")

	h, err := m.Hub(context.Background(), g.ID)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, 1, m.LiveCount())

	h2, err := m.Hub(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Same(t, h, h2, "a second lookup must reuse the already-started hub")
}

func TestManager_PlayerIDFor(t *testing.T) {
	repo := store.NewMemoryRepository()
	m := NewManager(repo, Config{}, nil, nil)
	white, black := ids.NewUserId(), ids.NewUserId()

	gameID, err := m.CreateGame(context.Background(), white, black)
	require.NoError(t, err)

	playerID, err := m.PlayerIDFor(context.Background(), gameID, black)
	require.NoError(t, err)
	assert.False(t, playerID.IsZero())

	_, err = m.PlayerIDFor(context.Background(), gameID, ids.NewUserId())
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestManager_Evict_StopsHubAndRemovesFromRegistry(t *testing.T) {
	repo := store.NewMemoryRepository()
	m := NewManager(repo, Config{}, nil, nil)
	white, black := ids.NewUserId(), ids.NewUserId()

	gameID, err := m.CreateGame(context.Background(), white, black)
	require.NoError(t, err)
	require.Equal(t, 1, m.LiveCount())

	m.Evict(gameID)
	assert.Equal(t, 0, m.LiveCount())

	h, err := m.Hub(context.Background(), gameID)
	require.NoError(t, err)
	require.NotNil(t, h, "a Hub lookup after eviction restarts from the repository")
	assert.Equal(t, 1, m.LiveCount())
}
