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

// Package store defines the GameRepository persistence port and its
// two implementations: an in-memory store for tests and no-database
// operation, and a Postgres-backed store via pgx.
package store

import (
	"context"
	"errors"

	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
)

// ErrGameNotFound is returned by FindByID when no game with the given id exists.
var ErrGameNotFound = errors.New("store: game not found")

// ErrPersistenceFailure wraps a transient failure writing or reading a
// game (connection error, timeout, constraint violation). Callers treat
// it as transient per the propagation policy: the in-memory aggregate
// is left untouched and the caller is told to retry.
var ErrPersistenceFailure = errors.New("store: persistence failure")

// GameRepository is the persistence contract consumed by SessionHub.
// Save is called from within the per-game critical section: a failed
// save must abort the in-progress state transition.
type GameRepository interface {
	Save(ctx context.Context, g *game.Game) error
	FindByID(ctx context.Context, id ids.GameId) (*game.Game, error)
}
