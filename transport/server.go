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
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/matchmaker"
	"github.com/frankkopp/chessserver/session"
	"github.com/frankkopp/chessserver/store"
)

// Server exposes the matchmaking and per-game websocket endpoints over
// an Echo router, translating wire frames to/from the matchmaker and
// session packages. Authentication, HTTP framing and routing beyond
// these three endpoints are composed by cmd/chessserver.
type Server struct {
	auth     Authenticator
	mm       *matchmaker.Matchmaker
	sessions *session.Manager
	mmHub    *matchmakingHub
	upgrader websocket.Upgrader
}

// NewServer wires a Server around its collaborators. sessions also
// satisfies matchmaker.GameFactory and is given to mm by the composition
// root before this call; mmHub must be the same value already passed to
// matchmaker.New as its Notifier (see NewMatchmakingNotifier), so that a
// connection registered here is the one a pairing notification reaches.
func NewServer(auth Authenticator, mm *matchmaker.Matchmaker, sessions *session.Manager, mmHub *matchmakingHub) *Server {
	return &Server{
		auth:     auth,
		mm:       mm,
		sessions: sessions,
		mmHub:    mmHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin websocket clients are the norm for this
			// protocol (browser game clients on a different origin
			// than the API host); the bearer token is the actual
			// access control, not same-origin cookies.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register attaches the three duplex endpoints to e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/ws/matchmaking", s.handleMatchmaking)
	e.GET("/ws/game/:gameId", s.handleGame)
	e.GET("/ws/game/:gameId/spectate", s.handleSpectate)
}

// authenticate resolves the bearer token carried by r, either in the
// Authorization header (native websocket clients that can set headers)
// or the "token" query parameter (the common fallback for browser
// WebSocket clients, which cannot set arbitrary headers on the upgrade
// request).
func (s *Server) authenticate(r *http.Request) (ids.UserId, error) {
	token, ok := bearerToken(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return ids.UserId{}, ErrAuthFailed
	}
	return s.auth.Authenticate(token)
}

func (s *Server) upgrade(c echo.Context) (*websocket.Conn, error) {
	return s.upgrader.Upgrade(c.Response(), c.Request(), nil)
}

// handleMatchmaking serves /ws/matchmaking: a connection authenticates,
// submits at most one meaningful JoinQueue frame at a time, and stays
// open to receive QueuePositionUpdate/MatchFound. Disconnecting while
// queued implicitly calls Matchmaker.Leave.
func (s *Server) handleMatchmaking(c echo.Context) error {
	userID, err := s.authenticate(c.Request())
	if err != nil {
		return s.rejectUnauthenticated(c)
	}

	conn, err := s.upgrade(c)
	if err != nil {
		mmLog.Warningf("matchmaking upgrade for user %s failed: %v", userID, err)
		return nil
	}
	wsConn := newWSConnection(conn)
	defer conn.Close()

	wsConn.sendRaw(encodeAuthSuccess(userID))

	s.mmHub.register(userID, wsConn)
	defer func() {
		s.mmHub.unregister(userID)
		s.mm.Leave(userID)
	}()

	done := make(chan struct{})
	defer close(done)
	wsConn.setupReadDeadlines()
	go wsConn.runKeepalive(done)

	ctx := c.Request().Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		kind, err := typeOf(raw)
		if err != nil || kind != TypeJoinQueue {
			continue
		}
		if _, err := decodeJoinQueue(raw); err != nil {
			wsConn.sendRaw(encodeMatchmakingError("InvalidMessage", err.Error()))
			continue
		}

		result, err := s.mm.Join(ctx, userID)
		if err != nil {
			wsConn.sendRaw(encodeMatchmakingError(matchmakingErrorCode(err), err.Error()))
			continue
		}
		if result.Waiting != nil {
			wsConn.sendRaw(encodeQueuePositionUpdate(result.Waiting.Position))
			continue
		}
		playerID, err := s.sessions.PlayerIDFor(ctx, result.Matched.GameID, userID)
		if err != nil {
			mmLog.Warningf("resolving player id for matched user %s in game %s: %v", userID, result.Matched.GameID, err)
			continue
		}
		wsConn.sendRaw(encodeMatchFound(result.Matched.GameID, result.Matched.YourColor, playerID, result.Matched.OpponentUserID))
	}
}

// handleGame serves /ws/game/:gameId for a participant: move/resign/draw
// commands flow through the game's Hub, which serializes and broadcasts
// every accepted transition.
func (s *Server) handleGame(c echo.Context) error {
	userID, err := s.authenticate(c.Request())
	if err != nil {
		return s.rejectUnauthenticated(c)
	}
	gameID, err := ids.ParseGameId(c.Param("gameId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed game id")
	}
	ctx := c.Request().Context()
	hub, err := s.sessions.Hub(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "game not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "loading game")
	}

	conn, err := s.upgrade(c)
	if err != nil {
		mmLog.Warningf("game %s upgrade for user %s failed: %v", gameID, userID, err)
		return nil
	}
	wsConn := newWSConnection(conn)
	defer conn.Close()

	// AuthSuccess must reach the client before any domain message, and
	// attaching already pushes the initial GameStateSync.
	wsConn.sendRaw(encodeAuthSuccess(userID))

	playerID, err := hub.AttachPlayer(userID, wsConn)
	if err != nil {
		wsConn.sendRaw(encodeError("NotAParticipant", err.Error()))
		return nil
	}
	defer hub.Detach(wsConn)

	done := make(chan struct{})
	defer close(done)
	wsConn.setupReadDeadlines()
	go wsConn.runKeepalive(done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		cmd, err := decodeGameCommand(raw, playerID)
		if err != nil {
			// A well-formed frame of an unknown type is dropped without a
			// reply; a malformed frame is answered with an Error.
			if kind, kerr := typeOf(raw); kerr == nil {
				switch kind {
				case TypeMoveAttempt, TypeResign, TypeOfferDraw, TypeAcceptDraw, TypeRejectDraw:
				default:
					continue
				}
			}
			wsConn.sendRaw(encodeError("InvalidMessage", err.Error()))
			continue
		}
		if err := hub.Submit(cmd); err != nil {
			// A rejected move already produced its own MoveRejected
			// inside the Hub. Persistence failures and every other
			// command kind have no delivery path on failure, so the
			// sender is told here.
			if cmd.Kind != session.CommandMove || errors.Is(err, store.ErrPersistenceFailure) {
				wsConn.sendRaw(encodeError(gameErrorCode(err), err.Error()))
			}
		}
	}
}

// handleSpectate serves /ws/game/:gameId/spectate: read-only, every
// inbound frame is dropped.
func (s *Server) handleSpectate(c echo.Context) error {
	userID, err := s.authenticate(c.Request())
	if err != nil {
		return s.rejectUnauthenticated(c)
	}
	gameID, err := ids.ParseGameId(c.Param("gameId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed game id")
	}
	ctx := c.Request().Context()
	hub, err := s.sessions.Hub(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "game not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "loading game")
	}

	conn, err := s.upgrade(c)
	if err != nil {
		mmLog.Warningf("spectate %s upgrade for user %s failed: %v", gameID, userID, err)
		return nil
	}
	wsConn := newWSConnection(conn)
	defer conn.Close()

	wsConn.sendRaw(encodeAuthSuccess(userID))

	if err := hub.AttachSpectator(userID, wsConn); err != nil {
		wsConn.sendRaw(encodeError("GameNotFound", err.Error()))
		return nil
	}
	defer hub.Detach(wsConn)

	done := make(chan struct{})
	defer close(done)
	wsConn.setupReadDeadlines()
	go wsConn.runKeepalive(done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
		// Spectator inbound carries no meaning; drop it.
	}
}

func (s *Server) rejectUnauthenticated(c echo.Context) error {
	conn, err := s.upgrade(c)
	if err != nil {
		return nil
	}
	defer conn.Close()
	conn.WriteMessage(websocket.TextMessage, encodeAuthFailed(ErrAuthFailed.Error()))
	return nil
}

func matchmakingErrorCode(err error) string {
	switch {
	case errors.Is(err, matchmaker.ErrAlreadyEnqueued):
		return "AlreadyEnqueued"
	case errors.Is(err, matchmaker.ErrUnknownUser):
		return "UnknownUser"
	default:
		return "Error"
	}
}

func gameErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, game.ErrIllegalMove):
		return "IllegalMove"
	case errors.Is(err, game.ErrGameOver):
		return "GameOver"
	case errors.Is(err, game.ErrNotAParticipant):
		return "NotAParticipant"
	case errors.Is(err, game.ErrNoPendingOffer):
		return "NoPendingOffer"
	case errors.Is(err, game.ErrCannotAcceptOwnOffer):
		return "CannotAcceptOwnOffer"
	case errors.Is(err, game.ErrOfferAlreadyPending):
		return "OfferAlreadyPending"
	default:
		return "PersistenceFailure"
	}
}
