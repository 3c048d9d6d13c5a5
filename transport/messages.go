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

// Package transport implements the wire protocol: a tagged-JSON message
// catalogue, an Echo/gorilla-websocket server exposing the matchmaking
// and per-game duplex channels, and the glue translating between the
// wire shapes here and the domain types in session/matchmaker/game.
package transport

// Every message crossing a websocket connection is a JSON object with a
// "type" discriminator naming one of the constants below, plus
// type-specific fields. Inbound messages this server doesn't recognize
// are dropped per connection (tolerate-and-ignore, matching the
// at-most-once/unordered-across-sessions delivery contract).
const (
	TypeAuthSuccess          = "AuthSuccess"
	TypeAuthFailed           = "AuthFailed"
	TypeJoinQueue            = "JoinQueue"
	TypeQueuePositionUpdate  = "QueuePositionUpdate"
	TypeMatchFound           = "MatchFound"
	TypeMatchmakingError     = "MatchmakingError"
	TypeMoveAttempt          = "MoveAttempt"
	TypeResign               = "Resign"
	TypeOfferDraw            = "OfferDraw"
	TypeAcceptDraw           = "AcceptDraw"
	TypeRejectDraw           = "RejectDraw"
	TypeGameStateSync        = "GameStateSync"
	TypeMoveExecuted         = "MoveExecuted"
	TypeMoveRejected         = "MoveRejected"
	TypeGameResigned         = "GameResigned"
	TypeDrawOffered          = "DrawOffered"
	TypeDrawAccepted         = "DrawAccepted"
	TypeDrawRejected         = "DrawRejected"
	TypePlayerDisconnected   = "PlayerDisconnected"
	TypePlayerReconnected    = "PlayerReconnected"
	TypeError                = "Error"
)

// envelope reads only the type tag of an inbound message. Every message
// is one flat JSON object: each concrete message struct below carries
// its own "type" field next to its payload fields, rather than a generic
// nested "payload" key, matching how the protocol is described in the
// message catalogue (flat objects, not {type, payload} pairs).
type envelope struct {
	Type string `json:"type"`
}

// --- Server -> Client (matchmaking) ---

type authSuccessMsg struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type authFailedMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type queuePositionUpdateMsg struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

type matchFoundMsg struct {
	Type           string `json:"type"`
	GameID         string `json:"gameId"`
	YourColor      string `json:"yourColor"`
	PlayerID       string `json:"playerId"`
	OpponentUserID string `json:"opponentUserId,omitempty"`
}

type matchmakingErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Client -> Server (matchmaking) ---

type joinQueueMsg struct {
	Type        string `json:"type"`
	Bot         bool   `json:"bot,omitempty"`
	BotID       string `json:"botId,omitempty"`
	PlayerColor string `json:"playerColor,omitempty"`
}

// --- Client -> Server (game) ---

type moveAttemptMsg struct {
	Type      string `json:"type"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// --- Server -> Client (game) ---

type gameStateSyncMsg struct {
	Type          string       `json:"type"`
	GameID        string       `json:"gameId"`
	Fen           string       `json:"fen"`
	MoveHistory   []moveWire   `json:"moveHistory"`
	Status        string       `json:"status"`
	CurrentSide   string       `json:"currentSide"`
	WhitePlayerID string       `json:"whitePlayerId"`
	BlackPlayerID string       `json:"blackPlayerId"`
}

type moveWire struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type moveExecutedMsg struct {
	Type           string   `json:"type"`
	Move           moveWire `json:"move"`
	NewPositionFen string   `json:"newPositionFen"`
	GameStatus     string   `json:"gameStatus"`
	CurrentSide    string   `json:"currentSide"`
	IsCheck        bool     `json:"isCheck"`
}

type moveRejectedMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type gameResignedMsg struct {
	Type             string `json:"type"`
	ResignedPlayerID string `json:"resignedPlayerId"`
	GameStatus       string `json:"gameStatus"`
}

type drawOfferedMsg struct {
	Type              string `json:"type"`
	OfferedByPlayerID string `json:"offeredByPlayerId"`
}

type drawAcceptedMsg struct {
	Type               string `json:"type"`
	AcceptedByPlayerID string `json:"acceptedByPlayerId"`
	GameStatus         string `json:"gameStatus"`
}

type drawRejectedMsg struct {
	Type              string `json:"type"`
	RejectedByPlayerID string `json:"rejectedByPlayerId"`
}

type playerDisconnectedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type playerReconnectedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
