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

package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/ids"
)

func newTestGame() *Game {
	return New(ids.NewGameId(), ids.NewUserId(), ids.NewUserId(), time.Now())
}

func TestNewGameStartsInProgressAtStandardPosition(t *testing.T) {
	g := newTestGame()
	assert.Equal(t, StatusInProgress, g.Status())
	assert.Equal(t, chess.StartFEN, g.Position().ToFEN())
	assert.Equal(t, chess.White, g.CurrentSide())
	assert.Equal(t, g.White, g.CurrentPlayer())
	assert.Empty(t, g.History())
	assert.Equal(t, NoDrawOffer, g.PendingDrawOffer())
}

func TestApplyMove_RejectsWrongTurn(t *testing.T) {
	g := newTestGame()
	_, err := g.ApplyMove(g.Black.ID, chess.MakeMove("e7e5"), time.Now())
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestApplyMove_RejectsNonParticipant(t *testing.T) {
	g := newTestGame()
	_, err := g.ApplyMove(ids.NewPlayerId(), chess.MakeMove("e2e4"), time.Now())
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestApplyMove_RejectsIllegalMove(t *testing.T) {
	g := newTestGame()
	_, err := g.ApplyMove(g.White.ID, chess.MakeMove("e2e5"), time.Now())
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestApplyMove_AdvancesTurnAndHistoryWithoutMutatingReceiver(t *testing.T) {
	g := newTestGame()
	next, err := g.ApplyMove(g.White.ID, chess.MakeMove("e2e4"), time.Now())
	require.NoError(t, err)

	assert.Equal(t, StatusInProgress, g.Status(), "receiver must be untouched")
	assert.Equal(t, chess.StartFEN, g.Position().ToFEN())

	assert.Equal(t, chess.Black, next.CurrentSide())
	assert.Len(t, next.History(), 1)
	assert.Equal(t, chess.MakeMove("e2e4"), next.History()[0].Move)
}

func TestApplyMove_DetectsCheckmate(t *testing.T) {
	g := newTestGame()
	now := time.Now()

	seq := []ids.PlayerId{g.White.ID, g.Black.ID, g.White.ID, g.Black.ID}
	moves := []string{"f2f3", "e7e5", "g2g4", "d8h4"}

	var err error
	for i, mv := range moves {
		g, err = g.ApplyMove(seq[i], chess.MakeMove(mv), now)
		require.NoError(t, err)
	}

	assert.Equal(t, StatusCheckmate, g.Status())
	assert.True(t, g.Status().IsTerminal())
}

func TestApplyMove_DetectsThreefoldRepetitionThroughStart(t *testing.T) {
	g := newTestGame()
	now := time.Now()

	// Knights out and back twice: the starting position occurs for the
	// third time after the eighth move.
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	var err error
	for round := 0; round < 2; round++ {
		for i, mv := range shuffle {
			actor := g.White.ID
			if i%2 == 1 {
				actor = g.Black.ID
			}
			g, err = g.ApplyMove(actor, chess.MakeMove(mv), now)
			require.NoError(t, err)
		}
	}

	assert.Equal(t, StatusDraw, g.Status())
}

func TestApplyMove_RejectedOnTerminalGame(t *testing.T) {
	g := newTestGame()
	now := time.Now()
	resigned, err := g.Resign(g.White.ID, now)
	require.NoError(t, err)

	_, err = resigned.ApplyMove(resigned.Black.ID, chess.MakeMove("e7e5"), now)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestResign_SetsStatusForResigningSide(t *testing.T) {
	g := newTestGame()
	next, err := g.Resign(g.White.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusResignedWhite, next.Status())

	g2 := newTestGame()
	next2, err := g2.Resign(g2.Black.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusResignedBlack, next2.Status())
}

func TestDrawOfferLifecycle(t *testing.T) {
	g := newTestGame()
	now := time.Now()

	offered, err := g.OfferDraw(g.White.ID, now)
	require.NoError(t, err)
	assert.Equal(t, DrawOfferedByWhite, offered.PendingDrawOffer())

	_, err = offered.OfferDraw(offered.Black.ID, now)
	assert.ErrorIs(t, err, ErrOfferAlreadyPending, "a second offer while one is pending must be rejected")

	_, err = offered.AcceptDraw(offered.White.ID, now)
	assert.ErrorIs(t, err, ErrCannotAcceptOwnOffer)

	accepted, err := offered.AcceptDraw(offered.Black.ID, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDraw, accepted.Status())
	assert.Equal(t, NoDrawOffer, accepted.PendingDrawOffer())
}

func TestDrawOffer_RejectClearsOfferWithoutEndingGame(t *testing.T) {
	g := newTestGame()
	now := time.Now()

	offered, err := g.OfferDraw(g.White.ID, now)
	require.NoError(t, err)

	_, err = offered.RejectDraw(offered.White.ID, now)
	assert.ErrorIs(t, err, ErrCannotAcceptOwnOffer)

	rejected, err := offered.RejectDraw(offered.Black.ID, now)
	require.NoError(t, err)
	assert.Equal(t, NoDrawOffer, rejected.PendingDrawOffer())
	assert.Equal(t, StatusInProgress, rejected.Status())
}

func TestDrawOffer_AcceptWithoutPendingOfferFails(t *testing.T) {
	g := newTestGame()
	_, err := g.AcceptDraw(g.Black.ID, time.Now())
	assert.ErrorIs(t, err, ErrNoPendingOffer)

	_, err = g.RejectDraw(g.Black.ID, time.Now())
	assert.ErrorIs(t, err, ErrNoPendingOffer)
}

func TestApplyMove_ClearsPendingDrawOffer(t *testing.T) {
	g := newTestGame()
	now := time.Now()

	offered, err := g.OfferDraw(g.White.ID, now)
	require.NoError(t, err)
	require.Equal(t, DrawOfferedByWhite, offered.PendingDrawOffer())

	next, err := offered.ApplyMove(offered.White.ID, chess.MakeMove("e2e4"), now)
	require.NoError(t, err)
	assert.Equal(t, NoDrawOffer, next.PendingDrawOffer())
}

func TestRestore_RoundTripsFENAndHistory(t *testing.T) {
	g := newTestGame()
	now := time.Now()
	next, err := g.ApplyMove(g.White.ID, chess.MakeMove("e2e4"), now)
	require.NoError(t, err)

	restored, err := Restore(
		next.ID,
		next.White, next.Black,
		next.Position().ToFEN(),
		next.Status(),
		next.PendingDrawOffer(),
		next.History(),
		next.CreatedAt(), next.UpdatedAt(),
	)
	require.NoError(t, err)

	assert.Equal(t, next.Position().ToFEN(), restored.Position().ToFEN())
	assert.Equal(t, next.Status(), restored.Status())
	assert.Equal(t, next.History(), restored.History())
}

func TestRestore_InvalidFEN(t *testing.T) {
	_, err := Restore(ids.NewGameId(), Player{}, Player{}, "not a fen", StatusInProgress, NoDrawOffer, nil, time.Now(), time.Now())
	assert.Error(t, err)
}

func TestPlayerForUser(t *testing.T) {
	g := newTestGame()
	p, ok := g.PlayerForUser(g.White.UserID)
	assert.True(t, ok)
	assert.Equal(t, g.White, p)

	_, ok = g.PlayerForUser(ids.NewUserId())
	assert.False(t, ok)
}
