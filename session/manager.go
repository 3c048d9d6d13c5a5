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
	"errors"
	"sync"
	"time"

	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/store"
)

// ErrGameNotLive names the condition of no live Hub existing for a
// GameId. Manager.Hub does not return it: an unknown game yields the
// repository's error (store.ErrGameNotFound) and an evicted game is
// loaded and started again.
var ErrGameNotLive = errors.New("session: no live hub for this game")

// Manager owns every live Hub in the process, keyed by GameId. It
// implements matchmaker.GameFactory directly, so the matchmaker can
// hand a freshly paired game straight to a running Hub without either
// package depending on the other's concrete types.
type Manager struct {
	repo   store.GameRepository
	hubCfg Config
	bot    BotPredicate
	engine BotEngine

	mu   sync.Mutex
	hubs map[ids.GameId]*Hub
	quit map[ids.GameId]context.CancelFunc
}

// NewManager builds a Manager. bot/engine may both be nil, disabling
// bot-seat play entirely.
func NewManager(repo store.GameRepository, cfg Config, bot BotPredicate, engine BotEngine) *Manager {
	return &Manager{
		repo:   repo,
		hubCfg: cfg,
		bot:    bot,
		engine: engine,
		hubs:   make(map[ids.GameId]*Hub),
		quit:   make(map[ids.GameId]context.CancelFunc),
	}
}

// CreateGame implements matchmaker.GameFactory: it mints a new Game,
// persists its initial row, and starts a Hub goroutine for it before
// returning the GameId to the caller.
func (m *Manager) CreateGame(ctx context.Context, whiteUser, blackUser ids.UserId) (ids.GameId, error) {
	id := ids.NewGameId()
	g := game.New(id, whiteUser, blackUser, time.Now())
	if err := m.repo.Save(ctx, g); err != nil {
		return ids.GameId{}, err
	}
	m.start(g)
	return id, nil
}

func (m *Manager) start(g *game.Game) {
	hubCtx, cancel := context.WithCancel(context.Background())
	h := NewHub(g, m.repo, m.hubCfg, m.bot, m.engine)

	m.mu.Lock()
	m.hubs[g.ID] = h
	m.quit[g.ID] = cancel
	m.mu.Unlock()

	go h.Run(hubCtx)
}

// Hub returns the live Hub for id, loading it from the repository and
// starting a fresh Hub goroutine on first access (e.g. after a server
// restart) if it is not already running in this process.
func (m *Manager) Hub(ctx context.Context, id ids.GameId) (*Hub, error) {
	m.mu.Lock()
	h, ok := m.hubs[id]
	m.mu.Unlock()
	if ok {
		return h, nil
	}

	g, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hubs[id]; ok {
		return h, nil
	}
	hubCtx, cancel := context.WithCancel(context.Background())
	h = NewHub(g, m.repo, m.hubCfg, m.bot, m.engine)
	m.hubs[id] = h
	m.quit[id] = cancel
	go h.Run(hubCtx)
	return h, nil
}

// PlayerIDFor resolves the PlayerId userID controls in game id, loading
// or starting the Hub as needed.
func (m *Manager) PlayerIDFor(ctx context.Context, id ids.GameId, userID ids.UserId) (ids.PlayerId, error) {
	h, err := m.Hub(ctx, id)
	if err != nil {
		return ids.PlayerId{}, err
	}
	return h.PlayerIDFor(userID)
}

// Evict stops a Hub's goroutine and removes it from the registry. Call
// this once a game has gone terminal and all connections have detached,
// so the process doesn't accumulate one goroutine per finished game
// forever.
func (m *Manager) Evict(id ids.GameId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.quit[id]; ok {
		cancel()
	}
	delete(m.hubs, id)
	delete(m.quit, id)
}

// LiveCount reports how many Hub goroutines are currently running,
// mostly useful for metrics/health endpoints.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}
