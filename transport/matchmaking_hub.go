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

package transport

import (
	"context"
	"sync"

	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/logging"
	"github.com/frankkopp/chessserver/matchmaker"
)

var mmLog = logging.GetLog("transport")

// playerIDResolver looks up the PlayerId a UserId controls in a given
// game, starting the game's Hub if it is not already live. session.Manager
// implements this.
type playerIDResolver interface {
	PlayerIDFor(ctx context.Context, id ids.GameId, userID ids.UserId) (ids.PlayerId, error)
}

// matchmakingHub is the concurrent-safe connection registry the
// matchmaking endpoint registers into and matchmaker.Notifier delivers
// through. It implements matchmaker.Notifier directly: the side-channel
// notification a Join caller's partner needs is just "find their
// connection, if still open, and write a MatchFound frame to it".
type matchmakingHub struct {
	sessions playerIDResolver

	mu    sync.Mutex
	conns map[ids.UserId]*wsConnection
}

func newMatchmakingHub(sessions playerIDResolver) *matchmakingHub {
	return &matchmakingHub{sessions: sessions, conns: make(map[ids.UserId]*wsConnection)}
}

// NewMatchmakingNotifier builds the connection registry that backs both
// the matchmaker.Notifier a Matchmaker delivers pairing notifications
// through and the registry the /ws/matchmaking endpoint registers a
// waiting connection into. The composition root constructs exactly one
// of these per process and gives it to both matchmaker.New and
// NewServer.
func NewMatchmakingNotifier(sessions playerIDResolver) *matchmakingHub {
	return newMatchmakingHub(sessions)
}

func (h *matchmakingHub) register(userID ids.UserId, c *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = c
}

func (h *matchmakingHub) unregister(userID ids.UserId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, userID)
}

// IsConnected implements matchmaker.PresenceChecker: a user counts as
// connected while their matchmaking connection is still registered.
func (h *matchmakingHub) IsConnected(userID ids.UserId) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[userID]
	return ok
}

// NotifyMatched implements matchmaker.Notifier. If the notified user's
// connection has since disconnected, the notification is silently
// dropped.
func (h *matchmakingHub) NotifyMatched(n matchmaker.MatchNotification) {
	h.mu.Lock()
	c, ok := h.conns[n.UserID]
	h.mu.Unlock()
	if !ok {
		return
	}
	playerID, err := h.sessions.PlayerIDFor(context.Background(), n.GameID, n.UserID)
	if err != nil {
		mmLog.Warningf("notify matched: resolving player id for user %s in game %s: %v", n.UserID, n.GameID, err)
		return
	}
	if err := c.sendRaw(encodeMatchFound(n.GameID, n.Color, playerID, n.Partner)); err != nil {
		mmLog.Warningf("notify matched: send to user %s failed: %v", n.UserID, err)
	}
}

var (
	_ matchmaker.Notifier        = (*matchmakingHub)(nil)
	_ matchmaker.PresenceChecker = (*matchmakingHub)(nil)
)
