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
	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
)

// Broadcast is an outbound event a Hub delivers to some subset of its
// attached sessions. The transport layer renders each Kind into its
// wire-protocol JSON shape (transport/codec.go).
type Broadcast struct {
	Kind BroadcastKind

	// Payload fields; only the ones relevant to Kind are populated.
	Move               chess.Move
	NewPositionFEN     string
	GameStatus         game.Status
	CurrentSide        chess.Color
	IsCheck            bool
	Reason             string
	ResignedPlayerID   ids.PlayerId
	OfferedByPlayerID  ids.PlayerId
	AcceptedByPlayerID ids.PlayerId
	RejectedByPlayerID ids.PlayerId
	DisconnectedPlayer ids.PlayerId
	ReconnectedPlayer  ids.PlayerId
	StateSync          *StateSync
}

// BroadcastKind names one of the outbound event shapes.
type BroadcastKind int

// The outbound broadcast kinds a Hub ever emits.
const (
	KindMoveExecuted BroadcastKind = iota
	KindMoveRejected
	KindGameResigned
	KindDrawOffered
	KindDrawAccepted
	KindDrawRejected
	KindGameStateSync
	KindPlayerDisconnected
	KindPlayerReconnected
)

// StateSync is the initial snapshot sent to a connection on attach.
type StateSync struct {
	GameID        ids.GameId
	FEN           string
	MoveHistory   []chess.Move
	Status        game.Status
	CurrentSide   chess.Color
	WhitePlayerID ids.PlayerId
	BlackPlayerID ids.PlayerId
}

// Command is one inbound action a connection submits to a Hub. Exactly
// one payload field is meaningful per Kind, selected by the transport
// layer when it decodes an inbound wire message.
type Command struct {
	Kind      CommandKind
	ActorID   ids.PlayerId
	Move      chess.Move
	ReplyTo   chan<- CommandResult
}

// CommandKind names one of the mutating actions a player connection
// may submit.
type CommandKind int

// The inbound command kinds a Hub accepts from a player connection.
const (
	CommandMove CommandKind = iota
	CommandResign
	CommandOfferDraw
	CommandAcceptDraw
	CommandRejectDraw
)

// CommandResult is delivered back to the submitter once a Command has
// been applied (or rejected) by the Hub's serializing loop.
type CommandResult struct {
	Err error
}
