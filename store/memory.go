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
	"sync"

	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
)

// MemoryRepository is an in-memory GameRepository, safe for concurrent
// use. It never fails except with ErrGameNotFound, and is the
// repository the server falls back to when no DSN is configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	games map[ids.GameId]*game.Game
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{games: make(map[ids.GameId]*game.Game)}
}

// Save stores (or overwrites) g under its ID.
func (r *MemoryRepository) Save(_ context.Context, g *game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = g
	return nil
}

// FindByID returns the stored game for id, or ErrGameNotFound.
func (r *MemoryRepository) FindByID(_ context.Context, id ids.GameId) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

var _ GameRepository = (*MemoryRepository)(nil)
