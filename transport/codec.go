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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/matchmaker"
	"github.com/frankkopp/chessserver/session"
)

// ErrInvalidMessage is returned by decodeGameCommand/decodeJoinQueue
// when an inbound frame is malformed or names a move the codec cannot
// parse. No state changes; the caller sends back an Error frame and
// keeps the connection open.
var ErrInvalidMessage = errors.New("transport: invalid message")

func typeOf(raw []byte) (string, error) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return e.Type, nil
}

// decodeJoinQueue parses an inbound matchmaking frame. Only JoinQueue is
// meaningful on this channel; anything else is dropped by the caller.
func decodeJoinQueue(raw []byte) (joinQueueMsg, error) {
	var m joinQueueMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		return joinQueueMsg{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return m, nil
}

// decodeGameCommand parses an inbound per-game frame into a
// session.Command, filling ActorID with actor (the PlayerId the
// transport resolved for this connection at attach time).
func decodeGameCommand(raw []byte, actor ids.PlayerId) (session.Command, error) {
	kind, err := typeOf(raw)
	if err != nil {
		return session.Command{}, err
	}
	switch kind {
	case TypeMoveAttempt:
		var m moveAttemptMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return session.Command{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		move := chess.Move{From: chess.MakeSquare(m.From), To: chess.MakeSquare(m.To)}
		if !move.From.IsValid() || !move.To.IsValid() {
			return session.Command{}, fmt.Errorf("%w: bad square in move %q-%q", ErrInvalidMessage, m.From, m.To)
		}
		if m.Promotion != "" {
			pt, ok := chess.PromotionPieceTypeFromName(m.Promotion)
			if !ok {
				return session.Command{}, fmt.Errorf("%w: unknown promotion %q", ErrInvalidMessage, m.Promotion)
			}
			move.Promotion = pt
		}
		return session.Command{Kind: session.CommandMove, ActorID: actor, Move: move}, nil
	case TypeResign:
		return session.Command{Kind: session.CommandResign, ActorID: actor}, nil
	case TypeOfferDraw:
		return session.Command{Kind: session.CommandOfferDraw, ActorID: actor}, nil
	case TypeAcceptDraw:
		return session.Command{Kind: session.CommandAcceptDraw, ActorID: actor}, nil
	case TypeRejectDraw:
		return session.Command{Kind: session.CommandRejectDraw, ActorID: actor}, nil
	default:
		return session.Command{}, fmt.Errorf("%w: unknown message type %q", ErrInvalidMessage, kind)
	}
}

// encodeBroadcast renders a session.Broadcast into the wire frame(s) it
// produces. Most kinds are a single frame; GameStateSync is as well,
// it is simply addressed to one connection by the caller rather than
// fanned out by the Hub.
func encodeBroadcast(b session.Broadcast) ([]byte, error) {
	switch b.Kind {
	case session.KindMoveExecuted:
		return json.Marshal(moveExecutedMsg{
			Type:           TypeMoveExecuted,
			Move:           moveWireOf(b.Move),
			NewPositionFen: b.NewPositionFEN,
			GameStatus:     string(b.GameStatus),
			CurrentSide:    b.CurrentSide.String(),
			IsCheck:        b.IsCheck,
		})
	case session.KindMoveRejected:
		return json.Marshal(moveRejectedMsg{Type: TypeMoveRejected, Reason: b.Reason})
	case session.KindGameResigned:
		return json.Marshal(gameResignedMsg{
			Type:             TypeGameResigned,
			ResignedPlayerID: b.ResignedPlayerID.String(),
			GameStatus:       string(b.GameStatus),
		})
	case session.KindDrawOffered:
		return json.Marshal(drawOfferedMsg{Type: TypeDrawOffered, OfferedByPlayerID: b.OfferedByPlayerID.String()})
	case session.KindDrawAccepted:
		return json.Marshal(drawAcceptedMsg{
			Type:               TypeDrawAccepted,
			AcceptedByPlayerID: b.AcceptedByPlayerID.String(),
			GameStatus:         string(b.GameStatus),
		})
	case session.KindDrawRejected:
		return json.Marshal(drawRejectedMsg{Type: TypeDrawRejected, RejectedByPlayerID: b.RejectedByPlayerID.String()})
	case session.KindGameStateSync:
		return encodeStateSync(b.StateSync)
	case session.KindPlayerDisconnected:
		return json.Marshal(playerDisconnectedMsg{Type: TypePlayerDisconnected, PlayerID: b.DisconnectedPlayer.String()})
	case session.KindPlayerReconnected:
		return json.Marshal(playerReconnectedMsg{Type: TypePlayerReconnected, PlayerID: b.ReconnectedPlayer.String()})
	default:
		return nil, fmt.Errorf("transport: unknown broadcast kind %d", b.Kind)
	}
}

func encodeStateSync(s *session.StateSync) ([]byte, error) {
	history := make([]moveWire, 0, len(s.MoveHistory))
	for _, m := range s.MoveHistory {
		history = append(history, moveWireOf(m))
	}
	return json.Marshal(gameStateSyncMsg{
		Type:          TypeGameStateSync,
		GameID:        s.GameID.String(),
		Fen:           s.FEN,
		MoveHistory:   history,
		Status:        string(s.Status),
		CurrentSide:   s.CurrentSide.String(),
		WhitePlayerID: s.WhitePlayerID.String(),
		BlackPlayerID: s.BlackPlayerID.String(),
	})
}

func moveWireOf(m chess.Move) moveWire {
	w := moveWire{From: m.From.String(), To: m.To.String()}
	if m.Promotion != chess.PtNone {
		w.Promotion = m.Promotion.String()
	}
	return w
}

func encodeError(code, message string) []byte {
	b, _ := json.Marshal(errorMsg{Type: TypeError, Code: code, Message: message})
	return b
}

func encodeAuthSuccess(userID ids.UserId) []byte {
	b, _ := json.Marshal(authSuccessMsg{Type: TypeAuthSuccess, UserID: userID.String()})
	return b
}

func encodeAuthFailed(reason string) []byte {
	b, _ := json.Marshal(authFailedMsg{Type: TypeAuthFailed, Reason: reason})
	return b
}

func encodeQueuePositionUpdate(position int) []byte {
	b, _ := json.Marshal(queuePositionUpdateMsg{Type: TypeQueuePositionUpdate, Position: position})
	return b
}

func encodeMatchmakingError(code, message string) []byte {
	b, _ := json.Marshal(matchmakingErrorMsg{Type: TypeMatchmakingError, Code: code, Message: message})
	return b
}

func encodeMatchFound(gameID ids.GameId, color matchmaker.Color, playerID ids.PlayerId, opponent ids.UserId) []byte {
	b, _ := json.Marshal(matchFoundMsg{
		Type:           TypeMatchFound,
		GameID:         gameID.String(),
		YourColor:      string(color),
		PlayerID:       playerID.String(),
		OpponentUserID: opponent.String(),
	})
	return b
}
