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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/matchmaker"
	"github.com/frankkopp/chessserver/session"
)

func TestDecodeJoinQueue(t *testing.T) {
	raw := []byte(`{"type":"JoinQueue"}`)
	m, err := decodeJoinQueue(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeJoinQueue, m.Type)
	assert.False(t, m.Bot)
}

func TestDecodeGameCommand_MoveAttempt(t *testing.T) {
	actor := ids.NewPlayerId()
	raw := []byte(`{"type":"MoveAttempt","from":"e2","to":"e4"}`)

	cmd, err := decodeGameCommand(raw, actor)
	require.NoError(t, err)
	assert.Equal(t, session.CommandMove, cmd.Kind)
	assert.Equal(t, actor, cmd.ActorID)
	assert.Equal(t, chess.SqE2, cmd.Move.From)
	assert.Equal(t, chess.SqE4, cmd.Move.To)
	assert.Equal(t, chess.PtNone, cmd.Move.Promotion)
}

func TestDecodeGameCommand_MoveAttemptWithPromotion(t *testing.T) {
	actor := ids.NewPlayerId()
	raw := []byte(`{"type":"MoveAttempt","from":"a7","to":"a8","promotion":"QUEEN"}`)

	cmd, err := decodeGameCommand(raw, actor)
	require.NoError(t, err)
	assert.Equal(t, chess.Queen, cmd.Move.Promotion)
}

func TestDecodeGameCommand_UnknownPromotionRejected(t *testing.T) {
	actor := ids.NewPlayerId()
	raw := []byte(`{"type":"MoveAttempt","from":"a7","to":"a8","promotion":"EMPEROR"}`)

	_, err := decodeGameCommand(raw, actor)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeGameCommand_NonMoveKinds(t *testing.T) {
	actor := ids.NewPlayerId()

	cases := []struct {
		frame string
		kind  session.CommandKind
	}{
		{`{"type":"Resign"}`, session.CommandResign},
		{`{"type":"OfferDraw"}`, session.CommandOfferDraw},
		{`{"type":"AcceptDraw"}`, session.CommandAcceptDraw},
		{`{"type":"RejectDraw"}`, session.CommandRejectDraw},
	}
	for _, tc := range cases {
		cmd, err := decodeGameCommand([]byte(tc.frame), actor)
		require.NoError(t, err)
		assert.Equal(t, tc.kind, cmd.Kind)
		assert.Equal(t, actor, cmd.ActorID)
	}
}

func TestDecodeGameCommand_BadSquareRejected(t *testing.T) {
	actor := ids.NewPlayerId()
	raw := []byte(`{"type":"MoveAttempt","from":"e9","to":"e4"}`)

	_, err := decodeGameCommand(raw, actor)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeGameCommand_UnknownTypeRejected(t *testing.T) {
	_, err := decodeGameCommand([]byte(`{"type":"Teleport"}`), ids.NewPlayerId())
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeGameCommand_MalformedJSONRejected(t *testing.T) {
	_, err := decodeGameCommand([]byte(`not json`), ids.NewPlayerId())
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestEncodeBroadcast_MoveExecuted(t *testing.T) {
	raw, err := encodeBroadcast(session.Broadcast{
		Kind:           session.KindMoveExecuted,
		Move:           chess.MakeMove("e2e4"),
		NewPositionFEN: chess.StartFEN,
		GameStatus:     game.StatusInProgress,
		CurrentSide:    chess.Black,
		IsCheck:        false,
	})
	require.NoError(t, err)

	var m moveExecutedMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeMoveExecuted, m.Type)
	assert.Equal(t, "e2", m.Move.From)
	assert.Equal(t, "e4", m.Move.To)
	assert.Equal(t, string(game.StatusInProgress), m.GameStatus)
	assert.Equal(t, "BLACK", m.CurrentSide)
	assert.False(t, m.IsCheck)
}

func TestEncodeBroadcast_MoveRejected(t *testing.T) {
	raw, err := encodeBroadcast(session.Broadcast{Kind: session.KindMoveRejected, Reason: "not your turn"})
	require.NoError(t, err)

	var m moveRejectedMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeMoveRejected, m.Type)
	assert.Equal(t, "not your turn", m.Reason)
}

func TestEncodeBroadcast_GameResigned(t *testing.T) {
	playerID := ids.NewPlayerId()
	raw, err := encodeBroadcast(session.Broadcast{
		Kind:             session.KindGameResigned,
		ResignedPlayerID: playerID,
		GameStatus:       game.StatusResignedWhite,
	})
	require.NoError(t, err)

	var m gameResignedMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeGameResigned, m.Type)
	assert.Equal(t, playerID.String(), m.ResignedPlayerID)
	assert.Equal(t, string(game.StatusResignedWhite), m.GameStatus)
}

func TestEncodeBroadcast_DrawOfferedExcludesNoOneAtCodecLevel(t *testing.T) {
	offeror := ids.NewPlayerId()
	raw, err := encodeBroadcast(session.Broadcast{Kind: session.KindDrawOffered, OfferedByPlayerID: offeror})
	require.NoError(t, err)

	var m drawOfferedMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, offeror.String(), m.OfferedByPlayerID)
}

func TestEncodeBroadcast_GameStateSync(t *testing.T) {
	gameID := ids.NewGameId()
	white, black := ids.NewPlayerId(), ids.NewPlayerId()
	raw, err := encodeBroadcast(session.Broadcast{
		Kind: session.KindGameStateSync,
		StateSync: &session.StateSync{
			GameID:        gameID,
			FEN:           chess.StartFEN,
			MoveHistory:   []chess.Move{chess.MakeMove("e2e4"), chess.MakeMove("e7e5")},
			Status:        game.StatusInProgress,
			CurrentSide:   chess.White,
			WhitePlayerID: white,
			BlackPlayerID: black,
		},
	})
	require.NoError(t, err)

	var m gameStateSyncMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeGameStateSync, m.Type)
	assert.Equal(t, gameID.String(), m.GameID)
	assert.Equal(t, chess.StartFEN, m.Fen)
	require.Len(t, m.MoveHistory, 2)
	assert.Equal(t, "e4", m.MoveHistory[0].To)
	assert.Equal(t, white.String(), m.WhitePlayerID)
}

func TestEncodeBroadcast_PlayerDisconnectedAndReconnected(t *testing.T) {
	playerID := ids.NewPlayerId()

	raw, err := encodeBroadcast(session.Broadcast{Kind: session.KindPlayerDisconnected, DisconnectedPlayer: playerID})
	require.NoError(t, err)
	var d playerDisconnectedMsg
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, TypePlayerDisconnected, d.Type)
	assert.Equal(t, playerID.String(), d.PlayerID)

	raw, err = encodeBroadcast(session.Broadcast{Kind: session.KindPlayerReconnected, ReconnectedPlayer: playerID})
	require.NoError(t, err)
	var r playerReconnectedMsg
	require.NoError(t, json.Unmarshal(raw, &r))
	assert.Equal(t, TypePlayerReconnected, r.Type)
}

func TestEncodeAuthSuccessAndFailed(t *testing.T) {
	userID := ids.NewUserId()
	raw := encodeAuthSuccess(userID)
	var s authSuccessMsg
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, TypeAuthSuccess, s.Type)
	assert.Equal(t, userID.String(), s.UserID)

	raw = encodeAuthFailed("bad token")
	var f authFailedMsg
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, TypeAuthFailed, f.Type)
	assert.Equal(t, "bad token", f.Reason)
}

func TestEncodeQueuePositionUpdateAndMatchmakingError(t *testing.T) {
	raw := encodeQueuePositionUpdate(3)
	var p queuePositionUpdateMsg
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, 3, p.Position)

	raw = encodeMatchmakingError("ALREADY_QUEUED", "you are already in the queue")
	var e matchmakingErrorMsg
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "ALREADY_QUEUED", e.Code)
}

func TestEncodeMatchFound(t *testing.T) {
	gameID := ids.NewGameId()
	playerID := ids.NewPlayerId()
	opponent := ids.NewUserId()

	raw := encodeMatchFound(gameID, matchmaker.White, playerID, opponent)
	var m matchFoundMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeMatchFound, m.Type)
	assert.Equal(t, gameID.String(), m.GameID)
	assert.Equal(t, "WHITE", m.YourColor)
	assert.Equal(t, playerID.String(), m.PlayerID)
	assert.Equal(t, opponent.String(), m.OpponentUserID)
}

func TestEncodeError(t *testing.T) {
	raw := encodeError("BAD_INPUT", "could not parse frame")
	var m errorMsg
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeError, m.Type)
	assert.Equal(t, "BAD_INPUT", m.Code)
	assert.Equal(t, "could not parse frame", m.Message)
}

func TestTypeOf(t *testing.T) {
	kind, err := typeOf([]byte(`{"type":"MoveAttempt","from":"e2","to":"e4"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeMoveAttempt, kind)

	_, err = typeOf([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
