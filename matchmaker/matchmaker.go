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

// Package matchmaker implements the single, process-global FIFO pairing
// queue: users join, and the moment two are waiting they are paired,
// assigned random colors, and handed to a GameFactory to materialize a
// persisted game.
package matchmaker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/logging"
)

var log = logging.GetLog("matchmaker")

// Sentinel errors returned by Join/Leave.
var (
	ErrAlreadyEnqueued = errors.New("matchmaker: user already enqueued")
	ErrUnknownUser     = errors.New("matchmaker: unknown user")
)

// UserExistenceChecker is the external collaborator used to fail fast
// on a join from a user the rest of the system doesn't recognize.
type UserExistenceChecker interface {
	Exists(ctx context.Context, userID ids.UserId) (bool, error)
}

// RNG is the color-assignment collaborator, injectable for
// deterministic tests.
type RNG interface {
	// Bool returns true/false with uniform 50/50 probability.
	Bool() bool
}

// defaultRNG wraps math/rand's package-level source.
type defaultRNG struct{}

func (defaultRNG) Bool() bool { return rand.Intn(2) == 0 }

// GameFactory materializes a persisted game for two paired players and
// returns its GameId. Matchmaker never touches GameRepository directly;
// this collaborator owns that wiring (session.Manager.CreateGame
// composes game.New + store.GameRepository into one, and cmd/chessserver
// passes that Manager in).
type GameFactory interface {
	CreateGame(ctx context.Context, whiteUser, blackUser ids.UserId) (ids.GameId, error)
}

// JoinResult is returned by Join. Exactly one of Waiting/Matched is set.
type JoinResult struct {
	Waiting *WaitingInfo
	Matched *MatchedInfo
}

// WaitingInfo describes a caller's position in the queue after joining
// without an immediate pairing.
type WaitingInfo struct {
	Position int
}

// MatchedInfo describes the game a caller was just paired into.
type MatchedInfo struct {
	GameID         ids.GameId
	YourColor      Color
	OpponentUserID ids.UserId
}

// Color mirrors chess.Color's wire spelling without importing the
// chess package, keeping Matchmaker decoupled from rule-engine details.
type Color string

// The two colors a matched player may be assigned.
const (
	White Color = "WHITE"
	Black Color = "BLACK"
)

// MatchNotification is delivered out-of-band to the other participant
// of a pairing (the one who did not make the triggering Join call).
// Transport subscribes to these to push MatchFound to a waiting
// connection.
type MatchNotification struct {
	UserID  ids.UserId
	GameID  ids.GameId
	Color   Color
	Partner ids.UserId
}

// Notifier delivers a MatchNotification to the side-channel Join
// cannot synchronously return to (the other paired user).
type Notifier interface {
	NotifyMatched(n MatchNotification)
}

// PresenceChecker reports whether a user still holds a live matchmaking
// connection. Consulted only on the factory-failure path: a user who
// disconnected while the pairing was being materialized is silently
// dropped instead of re-enqueued.
type PresenceChecker interface {
	IsConnected(userID ids.UserId) bool
}

type queueEntry struct {
	userID     ids.UserId
	enqueuedAt time.Time
}

// Matchmaker is the process-global matchmaking coordinator. Exactly
// one instance should exist per server process. The queue is in-memory
// and volatile: there is no cross-instance coordination, and a restart
// empties it.
type Matchmaker struct {
	checker  UserExistenceChecker
	factory  GameFactory
	notifier Notifier
	presence PresenceChecker
	rng      RNG

	mu    sync.Mutex
	queue []queueEntry
	index map[ids.UserId]struct{}
}

// New builds a Matchmaker. presence may be nil, in which case every
// user is assumed still connected on the re-enqueue path. rng may be
// nil, in which case a math/rand-backed coin flip is used.
func New(checker UserExistenceChecker, factory GameFactory, notifier Notifier, presence PresenceChecker, rng RNG) *Matchmaker {
	if rng == nil {
		rng = defaultRNG{}
	}
	return &Matchmaker{
		checker:  checker,
		factory:  factory,
		notifier: notifier,
		presence: presence,
		rng:      rng,
		index:    make(map[ids.UserId]struct{}),
	}
}

// Join enqueues userID, fail-fast rejecting unknown users and
// already-enqueued users, and atomically pairs it with the oldest
// waiting user if one exists.
func (m *Matchmaker) Join(ctx context.Context, userID ids.UserId) (JoinResult, error) {
	exists, err := m.checker.Exists(ctx, userID)
	if err != nil {
		return JoinResult{}, err
	}
	if !exists {
		return JoinResult{}, ErrUnknownUser
	}

	partner, position, err := m.enqueueAndTryPair(userID)
	if err != nil {
		return JoinResult{}, err
	}
	if partner == nil {
		return JoinResult{Waiting: &WaitingInfo{Position: position}}, nil
	}

	return m.materialize(ctx, *partner, userID)
}

// enqueueAndTryPair performs the entire "reject if already enqueued,
// enqueue, and pop the two oldest if there are now at least two"
// sequence under a single lock, so a pairing always consists of the
// two strictly oldest waiting users.
func (m *Matchmaker) enqueueAndTryPair(userID ids.UserId) (partner *ids.UserId, position int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, already := m.index[userID]; already {
		return nil, 0, ErrAlreadyEnqueued
	}

	m.queue = append(m.queue, queueEntry{userID: userID, enqueuedAt: timeNow()})
	m.index[userID] = struct{}{}

	if len(m.queue) < 2 {
		return nil, len(m.queue), nil
	}

	first := m.queue[0]
	second := m.queue[1]
	m.queue = m.queue[2:]
	delete(m.index, first.userID)
	delete(m.index, second.userID)

	if second.userID == userID {
		p := first.userID
		return &p, 0, nil
	}
	p := second.userID
	return &p, 0, nil
}

// materialize assigns colors and creates the game for a confirmed
// pair. callerID is the user whose Join call triggered the pairing;
// partnerID is the other, already-waiting user who is notified
// out-of-band. On factory failure both users are best-effort
// re-enqueued in their original relative order.
func (m *Matchmaker) materialize(ctx context.Context, partnerID, callerID ids.UserId) (JoinResult, error) {
	var whiteUser, blackUser ids.UserId
	callerIsWhite := m.rng.Bool()
	if callerIsWhite {
		whiteUser, blackUser = callerID, partnerID
	} else {
		whiteUser, blackUser = partnerID, callerID
	}

	gameID, err := m.factory.CreateGame(ctx, whiteUser, blackUser)
	if err != nil {
		log.Warningf("game creation failed for %s/%s, re-enqueueing: %v", partnerID, callerID, err)
		m.reenqueue(partnerID, callerID)
		return JoinResult{}, err
	}

	callerColor := Black
	partnerColor := White
	if callerIsWhite {
		callerColor, partnerColor = White, Black
	}

	m.notifier.NotifyMatched(MatchNotification{
		UserID:  partnerID,
		GameID:  gameID,
		Color:   partnerColor,
		Partner: callerID,
	})

	return JoinResult{Matched: &MatchedInfo{
		GameID:         gameID,
		YourColor:      callerColor,
		OpponentUserID: partnerID,
	}}, nil
}

// reenqueue restores a failed pairing's users to the front of the queue
// in their original relative order, silently dropping anyone who has
// disconnected while the game was being created.
func (m *Matchmaker) reenqueue(partnerID, callerID ids.UserId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := timeNow()
	var restored []queueEntry
	for _, id := range []ids.UserId{partnerID, callerID} {
		if m.presence != nil && !m.presence.IsConnected(id) {
			log.Infof("user %s disconnected during pairing, dropping instead of re-enqueueing", id)
			continue
		}
		restored = append(restored, queueEntry{userID: id, enqueuedAt: now})
		m.index[id] = struct{}{}
	}
	m.queue = append(restored, m.queue...)
}

// Leave removes userID from the queue if present. Idempotent: a leave
// for a user not in the queue simply returns false.
func (m *Matchmaker) Leave(userID ids.UserId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[userID]; !ok {
		return false
	}
	delete(m.index, userID)
	for i, e := range m.queue {
		if e.userID == userID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	return true
}

// IsEnqueued reports whether userID currently sits in the queue.
func (m *Matchmaker) IsEnqueued(userID ids.UserId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[userID]
	return ok
}

// Size returns the current queue length.
func (m *Matchmaker) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// timeNow is the Matchmaker's only clock read, isolated for testability.
func timeNow() time.Time { return time.Now() }
