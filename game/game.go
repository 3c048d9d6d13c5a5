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

// Package game implements the Game aggregate: two players bound to a
// live position, its move history and pending draw offer, moving
// through a terminal state machine driven entirely by chess.RuleEngine
// classifications.
package game

import (
	"errors"
	"time"

	"github.com/frankkopp/chessserver/assert"
	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/ids"
)

// Status is one of the values a Game's lifecycle can be in.
type Status string

// The Game status values. Once a Game reaches any status other than
// InProgress it is terminal: every mutating operation fails.
const (
	StatusInProgress    Status = "IN_PROGRESS"
	StatusCheckmate     Status = "CHECKMATE"
	StatusStalemate     Status = "STALEMATE"
	StatusDraw          Status = "DRAW"
	StatusResignedWhite Status = "RESIGNED_WHITE"
	StatusResignedBlack Status = "RESIGNED_BLACK"
)

// IsTerminal reports whether s is any status other than InProgress.
func (s Status) IsTerminal() bool {
	return s != StatusInProgress
}

// Sentinel errors returned by Game's mutating operations. The transport
// layer maps these to the wire-protocol Error codes of the same name.
var (
	ErrNotYourTurn          = errors.New("game: not your turn")
	ErrIllegalMove          = errors.New("game: illegal move")
	ErrGameOver             = errors.New("game: game is over")
	ErrNotAParticipant      = errors.New("game: actor is not a participant")
	ErrNoPendingOffer       = errors.New("game: no pending draw offer")
	ErrCannotAcceptOwnOffer = errors.New("game: cannot accept or reject your own draw offer")
	ErrOfferAlreadyPending  = errors.New("game: a draw offer is already pending")
)

// DrawOffer names which side, if any, has an open draw offer.
type DrawOffer int8

// The possible draw-offer states.
const (
	NoDrawOffer DrawOffer = iota
	DrawOfferedByWhite
	DrawOfferedByBlack
)

// Player is a participation record inside one Game: who (UserId) is
// playing which side, under an ephemeral PlayerId scoped to this game.
type Player struct {
	ID     ids.PlayerId
	UserID ids.UserId
	Side   chess.Color
}

// HistoryEntry is one played move together with the position it
// produced, kept so SessionHub can render GameStateSync and so
// RuleEngine.IsThreefoldRepetition has a history to scan.
type HistoryEntry struct {
	Move       chess.Move
	ResultFEN  string
	PlayedAt   time.Time
}

// Game is the authoritative aggregate for one live chess game. All
// mutating methods return a new *Game; the receiver is left untouched,
// so a caller holding the prior pointer can still use it (e.g. to retry
// a failed persistence write without having applied the move twice).
type Game struct {
	ID          ids.GameId
	White       Player
	Black       Player
	position    chess.Position
	status      Status
	history     []HistoryEntry
	drawOffer   DrawOffer
	rules       chess.RuleEngine
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates a freshly paired Game at the standard starting position.
// whiteUser and blackUser must be distinct; callers (the Matchmaker) own
// that invariant.
func New(id ids.GameId, whiteUser, blackUser ids.UserId, now time.Time) *Game {
	return &Game{
		ID: id,
		White: Player{
			ID:     ids.NewPlayerId(),
			UserID: whiteUser,
			Side:   chess.White,
		},
		Black: Player{
			ID:     ids.NewPlayerId(),
			UserID: blackUser,
			Side:   chess.Black,
		},
		position:  chess.NewStartingPosition(),
		status:    StatusInProgress,
		drawOffer: NoDrawOffer,
		rules:     chess.NewRuleEngine(),
		createdAt: now,
		updatedAt: now,
	}
}

// Restore reconstructs a Game from persisted fields, for use by
// GameRepository implementations loading a row back into memory. It
// does not re-validate move legality; the stored FEN and status are
// trusted as the last values a prior ApplyMove/Resign/AcceptDraw chain
// produced.
func Restore(
	id ids.GameId,
	white, black Player,
	fen string,
	status Status,
	drawOffer DrawOffer,
	history []HistoryEntry,
	createdAt, updatedAt time.Time,
) (*Game, error) {
	pos, err := chess.FromFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:        id,
		White:     white,
		Black:     black,
		position:  pos,
		status:    status,
		drawOffer: drawOffer,
		history:   append([]HistoryEntry(nil), history...),
		rules:     chess.NewRuleEngine(),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// Position returns the current position.
func (g *Game) Position() chess.Position { return g.position }

// Status returns the current game status.
func (g *Game) Status() Status { return g.status }

// History returns the played moves in order. The returned slice must
// not be mutated by the caller.
func (g *Game) History() []HistoryEntry { return g.history }

// PendingDrawOffer returns the currently open draw offer, if any.
func (g *Game) PendingDrawOffer() DrawOffer { return g.drawOffer }

// CurrentSide returns the side to move, always equal to
// g.Position().SideToMove().
func (g *Game) CurrentSide() chess.Color { return g.position.SideToMove() }

// CurrentPlayer returns the Player whose turn it is.
func (g *Game) CurrentPlayer() Player {
	if g.CurrentSide() == chess.White {
		return g.White
	}
	return g.Black
}

// PlayerForUser returns the Player record belonging to userID, if any.
func (g *Game) PlayerForUser(userID ids.UserId) (Player, bool) {
	if g.White.UserID == userID {
		return g.White, true
	}
	if g.Black.UserID == userID {
		return g.Black, true
	}
	return Player{}, false
}

func (g *Game) participant(actor ids.PlayerId) (Player, bool) {
	if g.White.ID == actor {
		return g.White, true
	}
	if g.Black.ID == actor {
		return g.Black, true
	}
	return Player{}, false
}

// clone copies g so mutating methods never touch the receiver.
func (g *Game) clone() *Game {
	cp := *g
	cp.history = append([]HistoryEntry(nil), g.history...)
	return &cp
}

// ApplyMove validates and applies move on behalf of actor, returning
// the resulting Game. The receiver is never mutated.
func (g *Game) ApplyMove(actor ids.PlayerId, move chess.Move, now time.Time) (*Game, error) {
	player, ok := g.participant(actor)
	if !ok {
		return nil, ErrNotAParticipant
	}
	if g.status.IsTerminal() {
		return nil, ErrGameOver
	}
	if player.Side != g.CurrentSide() {
		return nil, ErrNotYourTurn
	}
	if !legalMoveMatches(g.rules.LegalMoves(g.position), move) {
		return nil, ErrIllegalMove
	}

	next := g.clone()
	next.position = g.position.ApplyMove(move)
	next.history = append(next.history, HistoryEntry{
		Move:      move,
		ResultFEN: next.position.ToFEN(),
		PlayedAt:  now,
	})
	next.drawOffer = NoDrawOffer
	next.status = classify(next.rules, next.position, next.history)
	next.updatedAt = now

	if assert.DEBUG {
		assert.Assert(next.CurrentSide() == next.position.SideToMove(),
			"game %s: currentSide/position.sideToMove desynced after move %s", next.ID, move)
	}
	return next, nil
}

func legalMoveMatches(legal []chess.Move, m chess.Move) bool {
	for _, l := range legal {
		if l.From == m.From && l.To == m.To && l.Promotion == m.Promotion {
			return true
		}
	}
	return false
}

// classify derives the post-move status from RuleEngine's terminal
// predicates. This is the only place Status is assigned a terminal
// value from gameplay (as opposed to resignation/draw-offer
// acceptance).
func classify(rules chess.RuleEngine, pos chess.Position, history []HistoryEntry) Status {
	if rules.IsCheckmate(pos) {
		return StatusCheckmate
	}
	if rules.IsStalemate(pos) {
		return StatusStalemate
	}
	if rules.IsFiftyMoveDraw(pos) {
		return StatusDraw
	}
	if rules.IsInsufficientMaterial(pos) {
		return StatusDraw
	}
	if rules.IsThreefoldRepetition(priorPositionsFromHistory(history), pos) {
		return StatusDraw
	}
	return StatusInProgress
}

// priorPositionsFromHistory reconstructs every position strictly before
// the one currently being classified: the starting position plus the
// position each earlier move produced. Without the starting position a
// line that shuffles pieces out and back (e.g. Nf3 Nf6 Ng1 Ng8 twice)
// would only ever count two of its three occurrences.
func priorPositionsFromHistory(history []HistoryEntry) []chess.Position {
	if len(history) == 0 {
		return nil
	}
	earlier := history[:len(history)-1]
	positions := make([]chess.Position, 0, len(earlier)+1)
	positions = append(positions, chess.NewStartingPosition())
	for _, h := range earlier {
		if pos, err := chess.FromFEN(h.ResultFEN); err == nil {
			positions = append(positions, pos)
		}
	}
	return positions
}

// Resign terminates the game as a loss for actor and a win for the
// opponent. The receiver is never mutated.
func (g *Game) Resign(actor ids.PlayerId, now time.Time) (*Game, error) {
	player, ok := g.participant(actor)
	if !ok {
		return nil, ErrNotAParticipant
	}
	if g.status.IsTerminal() {
		return nil, ErrGameOver
	}
	next := g.clone()
	if player.Side == chess.White {
		next.status = StatusResignedWhite
	} else {
		next.status = StatusResignedBlack
	}
	next.drawOffer = NoDrawOffer
	next.updatedAt = now
	return next, nil
}

// OfferDraw records a pending draw offer from actor's side. An offer
// may be made on either side's turn.
func (g *Game) OfferDraw(actor ids.PlayerId, now time.Time) (*Game, error) {
	player, ok := g.participant(actor)
	if !ok {
		return nil, ErrNotAParticipant
	}
	if g.status.IsTerminal() {
		return nil, ErrGameOver
	}
	if g.drawOffer != NoDrawOffer {
		return nil, ErrOfferAlreadyPending
	}
	next := g.clone()
	next.drawOffer = offerFor(player.Side)
	next.updatedAt = now
	return next, nil
}

func offerFor(side chess.Color) DrawOffer {
	if side == chess.White {
		return DrawOfferedByWhite
	}
	return DrawOfferedByBlack
}

// AcceptDraw accepts a pending draw offer on behalf of actor, who must
// not be the side that made the offer.
func (g *Game) AcceptDraw(actor ids.PlayerId, now time.Time) (*Game, error) {
	player, ok := g.participant(actor)
	if !ok {
		return nil, ErrNotAParticipant
	}
	if g.status.IsTerminal() {
		return nil, ErrGameOver
	}
	if g.drawOffer == NoDrawOffer {
		return nil, ErrNoPendingOffer
	}
	if g.drawOffer == offerFor(player.Side) {
		return nil, ErrCannotAcceptOwnOffer
	}
	next := g.clone()
	next.status = StatusDraw
	next.drawOffer = NoDrawOffer
	next.updatedAt = now
	return next, nil
}

// RejectDraw clears a pending draw offer on behalf of actor, who must
// not be the side that made the offer. Status is unchanged.
func (g *Game) RejectDraw(actor ids.PlayerId, now time.Time) (*Game, error) {
	player, ok := g.participant(actor)
	if !ok {
		return nil, ErrNotAParticipant
	}
	if g.status.IsTerminal() {
		return nil, ErrGameOver
	}
	if g.drawOffer == NoDrawOffer {
		return nil, ErrNoPendingOffer
	}
	if g.drawOffer == offerFor(player.Side) {
		return nil, ErrCannotAcceptOwnOffer
	}
	next := g.clone()
	next.drawOffer = NoDrawOffer
	next.updatedAt = now
	return next, nil
}

// CreatedAt returns when the game was created.
func (g *Game) CreatedAt() time.Time { return g.createdAt }

// UpdatedAt returns when the game last changed.
func (g *Game) UpdatedAt() time.Time { return g.updatedAt }
