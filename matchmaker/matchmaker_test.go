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

package matchmaker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/chessserver/ids"
)

type fakeChecker struct {
	known map[ids.UserId]bool
}

func (c *fakeChecker) Exists(_ context.Context, userID ids.UserId) (bool, error) {
	return c.known[userID], nil
}

type fakeFactory struct {
	mu       sync.Mutex
	calls    [][2]ids.UserId
	failNext bool
}

func (f *fakeFactory) CreateGame(_ context.Context, white, black ids.UserId) (ids.GameId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return ids.GameId{}, errors.New("factory: boom")
	}
	f.calls = append(f.calls, [2]ids.UserId{white, black})
	return ids.NewGameId(), nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []MatchNotification
}

func (n *fakeNotifier) NotifyMatched(notification MatchNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

type fixedRNG struct{ value bool }

func (r fixedRNG) Bool() bool { return r.value }

// fakePresence treats every user as connected except the listed ones.
type fakePresence struct {
	gone map[ids.UserId]bool
}

func (p *fakePresence) IsConnected(userID ids.UserId) bool {
	return !p.gone[userID]
}

func newTestMatchmaker(known ...ids.UserId) (*Matchmaker, *fakeFactory, *fakeNotifier) {
	set := make(map[ids.UserId]bool, len(known))
	for _, u := range known {
		set[u] = true
	}
	factory := &fakeFactory{}
	notifier := &fakeNotifier{}
	mm := New(&fakeChecker{known: set}, factory, notifier, nil, fixedRNG{value: true})
	return mm, factory, notifier
}

func TestJoin_UnknownUserRejected(t *testing.T) {
	mm, _, _ := newTestMatchmaker()
	_, err := mm.Join(context.Background(), ids.NewUserId())
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestJoin_FirstUserWaits(t *testing.T) {
	alice := ids.NewUserId()
	mm, _, _ := newTestMatchmaker(alice)

	result, err := mm.Join(context.Background(), alice)
	require.NoError(t, err)
	require.NotNil(t, result.Waiting)
	assert.Equal(t, 1, result.Waiting.Position)
	assert.Nil(t, result.Matched)
	assert.True(t, mm.IsEnqueued(alice))
}

func TestJoin_SecondUserPairsFIFO(t *testing.T) {
	alice, bob := ids.NewUserId(), ids.NewUserId()
	mm, factory, notifier := newTestMatchmaker(alice, bob)
	ctx := context.Background()

	_, err := mm.Join(ctx, alice)
	require.NoError(t, err)

	result, err := mm.Join(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, result.Matched)
	assert.Equal(t, alice, result.Matched.OpponentUserID, "bob's opponent is alice, the already-waiting user")

	require.Len(t, factory.calls, 1)
	assert.False(t, mm.IsEnqueued(alice))
	assert.False(t, mm.IsEnqueued(bob))
	assert.Equal(t, 0, mm.Size())

	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, alice, notifier.notifications[0].UserID)
	assert.Equal(t, bob, notifier.notifications[0].Partner)
}

func TestJoin_ThirdUserWaitsForAFourth(t *testing.T) {
	a, b, c := ids.NewUserId(), ids.NewUserId(), ids.NewUserId()
	mm, factory, _ := newTestMatchmaker(a, b, c)
	ctx := context.Background()

	_, err := mm.Join(ctx, a)
	require.NoError(t, err)
	_, err = mm.Join(ctx, b)
	require.NoError(t, err)

	result, err := mm.Join(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, result.Waiting)
	assert.Equal(t, 1, result.Waiting.Position)
	assert.True(t, mm.IsEnqueued(c))
	assert.Len(t, factory.calls, 1, "no pairing involves the third user until a fourth joins")
}

func TestJoin_DoubleEnqueueRejected(t *testing.T) {
	alice := ids.NewUserId()
	mm, _, _ := newTestMatchmaker(alice)
	_, err := mm.Join(context.Background(), alice)
	require.NoError(t, err)

	_, err = mm.Join(context.Background(), alice)
	assert.ErrorIs(t, err, ErrAlreadyEnqueued)
}

func TestJoin_ColorAssignmentRespectsRNG(t *testing.T) {
	alice, bob := ids.NewUserId(), ids.NewUserId()

	factory := &fakeFactory{}
	notifier := &fakeNotifier{}
	mm := New(&fakeChecker{known: map[ids.UserId]bool{alice: true, bob: true}}, factory, notifier, nil, fixedRNG{value: false})
	ctx := context.Background()

	_, err := mm.Join(ctx, alice)
	require.NoError(t, err)
	result, err := mm.Join(ctx, bob)
	require.NoError(t, err)

	// rng.Bool() == false means the triggering caller (bob) is not white.
	assert.Equal(t, Black, result.Matched.YourColor)
	assert.Equal(t, White, notifier.notifications[0].Color)
}

func TestLeave_RemovesFromQueue(t *testing.T) {
	alice := ids.NewUserId()
	mm, _, _ := newTestMatchmaker(alice)
	_, err := mm.Join(context.Background(), alice)
	require.NoError(t, err)

	assert.True(t, mm.Leave(alice))
	assert.False(t, mm.IsEnqueued(alice))
	assert.False(t, mm.Leave(alice), "leaving twice is idempotent")
}

func TestJoin_FactoryFailureReenqueuesBoth(t *testing.T) {
	alice, bob := ids.NewUserId(), ids.NewUserId()
	factory := &fakeFactory{failNext: true}
	notifier := &fakeNotifier{}
	mm := New(&fakeChecker{known: map[ids.UserId]bool{alice: true, bob: true}}, factory, notifier, nil, fixedRNG{value: true})
	ctx := context.Background()

	_, err := mm.Join(ctx, alice)
	require.NoError(t, err)

	_, err = mm.Join(ctx, bob)
	assert.Error(t, err)

	assert.True(t, mm.IsEnqueued(alice))
	assert.True(t, mm.IsEnqueued(bob))
	assert.Equal(t, 2, mm.Size())
	assert.Empty(t, notifier.notifications, "a failed pairing must not notify either side")
}

func TestJoin_FactoryFailureDropsDisconnectedUser(t *testing.T) {
	alice, bob := ids.NewUserId(), ids.NewUserId()
	factory := &fakeFactory{failNext: true}
	notifier := &fakeNotifier{}
	presence := &fakePresence{gone: map[ids.UserId]bool{alice: true}}
	mm := New(&fakeChecker{known: map[ids.UserId]bool{alice: true, bob: true}}, factory, notifier, presence, fixedRNG{value: true})
	ctx := context.Background()

	_, err := mm.Join(ctx, alice)
	require.NoError(t, err)

	// Alice disconnects while the game is being created; only bob comes
	// back to the queue.
	_, err = mm.Join(ctx, bob)
	assert.Error(t, err)

	assert.False(t, mm.IsEnqueued(alice))
	assert.True(t, mm.IsEnqueued(bob))
	assert.Equal(t, 1, mm.Size())
}
