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

// Package session implements the per-game SessionHub: the single
// serializing actor that owns one Game's authoritative state, applies
// player commands in a total order, persists every accepted mutation,
// and fans broadcasts out to every attached player and spectator
// connection.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/logging"
	"github.com/frankkopp/chessserver/store"
)

var log = logging.GetLog("session")

// Connection is the transport-level sink a Hub delivers Broadcasts to.
// Implementations wrap a websocket connection; Send must not block
// indefinitely (the websocket writer applies its own write deadline).
type Connection interface {
	Send(b Broadcast) error
}

// Sentinel errors returned by AttachPlayer and PlayerIDFor.
var (
	ErrNotAParticipant = errors.New("session: user is not a participant in this game")
)

// BotPredicate reports whether userID is a bot account, the optional
// collaborator that triggers scheduling a bot move after a state
// transition.
type BotPredicate interface {
	IsBot(userID ids.UserId) bool
}

// BotEngine chooses a move for the current position, the optional
// collaborator a scheduled bot-move task calls into.
type BotEngine interface {
	ChooseMove(ctx context.Context, g *game.Game) (chess.Move, error)
}

type attachPlayerRequest struct {
	userID ids.UserId
	conn   Connection
	reply  chan attachResult
}

type attachSpectatorRequest struct {
	userID ids.UserId
	conn   Connection
	reply  chan attachResult
}

type attachResult struct {
	playerID ids.PlayerId
	err      error
}

type detachRequest struct {
	conn Connection
}

type playerQuery struct {
	userID ids.UserId
	reply  chan attachResult
}

// Hub is the per-game serializing actor. Construct with NewHub and run
// its loop with Run in a dedicated goroutine; every other method is
// safe to call concurrently from any goroutine, since they only ever
// hand a request to the loop over a channel.
type Hub struct {
	gameID ids.GameId
	repo   store.GameRepository

	commands       chan Command
	attachPlayers  chan attachPlayerRequest
	attachSpecs    chan attachSpectatorRequest
	detachRequests chan detachRequest
	playerQueries  chan playerQuery

	botPredicate BotPredicate
	botEngine    BotEngine

	// state below is only ever touched from the Run goroutine.
	current        *game.Game
	playerConns    map[ids.PlayerId]Connection
	spectatorConns map[Connection]struct{}
	droppedSeats   map[ids.PlayerId]struct{}
}

// Config carries the buffered-channel sizes a Hub is built with.
type Config struct {
	CommandBuffer   int
	BroadcastBuffer int
}

// NewHub builds a Hub around g, initially with no attached connections.
// The caller must invoke Run in its own goroutine before any attach or
// command will be serviced.
func NewHub(g *game.Game, repo store.GameRepository, cfg Config, bot BotPredicate, engine BotEngine) *Hub {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 32
	}
	if cfg.BroadcastBuffer <= 0 {
		cfg.BroadcastBuffer = 16
	}
	return &Hub{
		gameID:         g.ID,
		repo:           repo,
		commands:       make(chan Command, cfg.CommandBuffer),
		attachPlayers:  make(chan attachPlayerRequest),
		attachSpecs:    make(chan attachSpectatorRequest),
		detachRequests: make(chan detachRequest, cfg.BroadcastBuffer),
		playerQueries:  make(chan playerQuery),
		botPredicate:   bot,
		botEngine:      engine,
		current:        g,
		playerConns:    make(map[ids.PlayerId]Connection),
		spectatorConns: make(map[Connection]struct{}),
		droppedSeats:   make(map[ids.PlayerId]struct{}),
	}
}

// Run is the Hub's single consumer loop: every mutation the game
// undergoes is processed here, one at a time, so it never races with
// another command for the same game. Run blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-h.attachPlayers:
			h.handleAttachPlayer(req)
		case req := <-h.attachSpecs:
			h.handleAttachSpectator(req)
		case req := <-h.detachRequests:
			h.handleDetach(req)
		case req := <-h.playerQueries:
			player, ok := h.current.PlayerForUser(req.userID)
			if !ok {
				req.reply <- attachResult{err: ErrNotAParticipant}
				continue
			}
			req.reply <- attachResult{playerID: player.ID}
		case cmd := <-h.commands:
			h.handleCommand(ctx, cmd)
		}
	}
}

// AttachPlayer binds conn to the Player userID controls in this game,
// replacing any prior connection for that seat, and sends an initial
// GameStateSync to conn before returning.
func (h *Hub) AttachPlayer(userID ids.UserId, conn Connection) (ids.PlayerId, error) {
	reply := make(chan attachResult, 1)
	h.attachPlayers <- attachPlayerRequest{userID: userID, conn: conn, reply: reply}
	res := <-reply
	return res.playerID, res.err
}

// AttachSpectator binds conn as a read-only observer of this game.
func (h *Hub) AttachSpectator(userID ids.UserId, conn Connection) error {
	reply := make(chan attachResult, 1)
	h.attachSpecs <- attachSpectatorRequest{userID: userID, conn: conn, reply: reply}
	res := <-reply
	return res.err
}

// PlayerIDFor resolves the PlayerId a UserId controls in this game,
// without attaching any connection. Used by the transport layer to
// render a MatchFound response's playerId field right after matchmaking
// hands back a freshly created game.
func (h *Hub) PlayerIDFor(userID ids.UserId) (ids.PlayerId, error) {
	reply := make(chan attachResult, 1)
	h.playerQueries <- playerQuery{userID: userID, reply: reply}
	res := <-reply
	return res.playerID, res.err
}

// Detach removes conn from both the player and spectator registries,
// whichever it was attached as. Safe to call more than once.
func (h *Hub) Detach(conn Connection) {
	h.detachRequests <- detachRequest{conn: conn}
}

// Submit hands a command to the Hub's serializing loop and blocks for
// its result. Commands from different connections are applied in
// arrival order; Submit itself does not hold any lock.
func (h *Hub) Submit(cmd Command) error {
	reply := make(chan CommandResult, 1)
	cmd.ReplyTo = reply
	h.commands <- cmd
	return (<-reply).Err
}

func (h *Hub) handleAttachPlayer(req attachPlayerRequest) {
	player, ok := h.current.PlayerForUser(req.userID)
	if !ok {
		req.reply <- attachResult{err: ErrNotAParticipant}
		return
	}
	h.playerConns[player.ID] = req.conn
	h.sendStateSync(req.conn)
	if _, wasDropped := h.droppedSeats[player.ID]; wasDropped {
		delete(h.droppedSeats, player.ID)
		if !h.current.Status().IsTerminal() {
			h.broadcastExcept(player.ID, Broadcast{Kind: KindPlayerReconnected, ReconnectedPlayer: player.ID})
		}
	}
	req.reply <- attachResult{playerID: player.ID}
}

func (h *Hub) handleAttachSpectator(req attachSpectatorRequest) {
	h.spectatorConns[req.conn] = struct{}{}
	h.sendStateSync(req.conn)
	req.reply <- attachResult{}
}

func (h *Hub) handleDetach(req detachRequest) {
	for pid, c := range h.playerConns {
		if c == req.conn {
			delete(h.playerConns, pid)
			h.droppedSeats[pid] = struct{}{}
			if !h.current.Status().IsTerminal() {
				h.broadcastAll(Broadcast{Kind: KindPlayerDisconnected, DisconnectedPlayer: pid})
			}
			return
		}
	}
	delete(h.spectatorConns, req.conn)
}

func (h *Hub) sendStateSync(conn Connection) {
	moves := make([]chess.Move, 0, len(h.current.History()))
	for _, entry := range h.current.History() {
		moves = append(moves, entry.Move)
	}
	snapshot := &StateSync{
		GameID:        h.gameID,
		FEN:           h.current.Position().ToFEN(),
		MoveHistory:   moves,
		Status:        h.current.Status(),
		CurrentSide:   h.current.CurrentSide(),
		WhitePlayerID: h.current.White.ID,
		BlackPlayerID: h.current.Black.ID,
	}
	if err := conn.Send(Broadcast{Kind: KindGameStateSync, StateSync: snapshot}); err != nil {
		log.Warningf("game %s: state sync send failed: %v", h.gameID, err)
	}
}

func (h *Hub) handleCommand(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Kind {
	case CommandMove:
		err = h.applyMove(ctx, cmd)
	case CommandResign:
		err = h.applyResign(ctx, cmd)
	case CommandOfferDraw:
		err = h.applyOfferDraw(ctx, cmd)
	case CommandAcceptDraw:
		err = h.applyAcceptDraw(ctx, cmd)
	case CommandRejectDraw:
		err = h.applyRejectDraw(ctx, cmd)
	}
	cmd.ReplyTo <- CommandResult{Err: err}
}

func (h *Hub) commit(ctx context.Context, next *game.Game) error {
	if err := h.repo.Save(ctx, next); err != nil {
		log.Errorf("game %s: persist failed, aborting transition: %v", h.gameID, err)
		return err
	}
	h.current = next
	return nil
}

func (h *Hub) applyMove(ctx context.Context, cmd Command) error {
	next, err := h.current.ApplyMove(cmd.ActorID, cmd.Move, time.Now())
	if err != nil {
		h.sendTo(cmd.ActorID, Broadcast{Kind: KindMoveRejected, Reason: err.Error()})
		return err
	}
	// A failed commit is a persistence failure, not a move rejection; the
	// transport reports it as an Error frame to the sender.
	if err := h.commit(ctx, next); err != nil {
		return err
	}
	isCheck := next.Status() == game.StatusCheckmate || isInCheckNow(next)
	h.broadcastAll(Broadcast{
		Kind:           KindMoveExecuted,
		Move:           cmd.Move,
		NewPositionFEN: next.Position().ToFEN(),
		GameStatus:     next.Status(),
		CurrentSide:    next.CurrentSide(),
		IsCheck:        isCheck,
	})
	h.maybeScheduleBotMove(ctx)
	return nil
}

func (h *Hub) applyResign(ctx context.Context, cmd Command) error {
	next, err := h.current.Resign(cmd.ActorID, time.Now())
	if err != nil {
		return err
	}
	if err := h.commit(ctx, next); err != nil {
		return err
	}
	h.broadcastAll(Broadcast{Kind: KindGameResigned, ResignedPlayerID: cmd.ActorID, GameStatus: next.Status()})
	return nil
}

func (h *Hub) applyOfferDraw(ctx context.Context, cmd Command) error {
	next, err := h.current.OfferDraw(cmd.ActorID, time.Now())
	if err != nil {
		return err
	}
	if err := h.commit(ctx, next); err != nil {
		return err
	}
	h.broadcastExcept(cmd.ActorID, Broadcast{Kind: KindDrawOffered, OfferedByPlayerID: cmd.ActorID})
	return nil
}

func (h *Hub) applyAcceptDraw(ctx context.Context, cmd Command) error {
	next, err := h.current.AcceptDraw(cmd.ActorID, time.Now())
	if err != nil {
		return err
	}
	if err := h.commit(ctx, next); err != nil {
		return err
	}
	h.broadcastAll(Broadcast{Kind: KindDrawAccepted, AcceptedByPlayerID: cmd.ActorID, GameStatus: next.Status()})
	return nil
}

func (h *Hub) applyRejectDraw(ctx context.Context, cmd Command) error {
	// The offerer must be resolved before the transition clears the
	// pending offer; the rejection notice is addressed to them alone.
	offerer := offererOf(h.current)
	next, err := h.current.RejectDraw(cmd.ActorID, time.Now())
	if err != nil {
		return err
	}
	if err := h.commit(ctx, next); err != nil {
		return err
	}
	h.sendTo(offerer, Broadcast{Kind: KindDrawRejected, RejectedByPlayerID: cmd.ActorID})
	return nil
}

func offererOf(g *game.Game) ids.PlayerId {
	if g.PendingDrawOffer() == game.DrawOfferedByWhite {
		return g.White.ID
	}
	return g.Black.ID
}

func isInCheckNow(g *game.Game) bool {
	rules := chess.NewRuleEngine()
	return rules.IsInCheck(g.Position(), g.CurrentSide())
}

// maybeScheduleBotMove asynchronously re-enters the Hub as a normal
// command on behalf of a bot seat, without holding this call's place
// in the loop while the engine computes.
func (h *Hub) maybeScheduleBotMove(ctx context.Context) {
	if h.botPredicate == nil || h.botEngine == nil {
		return
	}
	if h.current.Status().IsTerminal() {
		return
	}
	current := h.current.CurrentPlayer()
	if !h.botPredicate.IsBot(current.UserID) {
		return
	}
	gameAtSchedule := h.current
	go func() {
		move, err := h.botEngine.ChooseMove(ctx, gameAtSchedule)
		if err != nil {
			log.Warningf("game %s: bot move computation failed: %v", h.gameID, err)
			return
		}
		if err := h.Submit(Command{Kind: CommandMove, ActorID: current.ID, Move: move}); err != nil {
			log.Warningf("game %s: bot move submission rejected (likely stale): %v", h.gameID, err)
		}
	}()
}

func (h *Hub) sendTo(playerID ids.PlayerId, b Broadcast) {
	conn, ok := h.playerConns[playerID]
	if !ok {
		return
	}
	if err := conn.Send(b); err != nil {
		log.Warningf("game %s: send to player %s failed, dropping connection: %v", h.gameID, playerID, err)
		delete(h.playerConns, playerID)
	}
}

// broadcastAll delivers b to both players and every spectator.
func (h *Hub) broadcastAll(b Broadcast) {
	h.fanOut(b, h.allConnections())
}

func (h *Hub) broadcastExcept(exclude ids.PlayerId, b Broadcast) {
	conns := make([]Connection, 0, len(h.playerConns)+len(h.spectatorConns))
	for pid, c := range h.playerConns {
		if pid != exclude {
			conns = append(conns, c)
		}
	}
	for c := range h.spectatorConns {
		conns = append(conns, c)
	}
	h.fanOut(b, conns)
}

func (h *Hub) allConnections() []Connection {
	conns := make([]Connection, 0, len(h.playerConns)+len(h.spectatorConns))
	for _, c := range h.playerConns {
		conns = append(conns, c)
	}
	for c := range h.spectatorConns {
		conns = append(conns, c)
	}
	return conns
}

// fanOut delivers b to conns concurrently via errgroup so one slow
// connection cannot delay the others. Failed connections are removed
// from both registries after the fan-out completes; the committed state
// transition is never rolled back on a delivery failure.
func (h *Hub) fanOut(b Broadcast, conns []Connection) {
	var mu sync.Mutex
	var failed []Connection
	var g errgroup.Group
	for _, c := range conns {
		c := c
		g.Go(func() error {
			if err := c.Send(b); err != nil {
				log.Warningf("game %s: broadcast send failed, dropping connection: %v", h.gameID, err)
				mu.Lock()
				failed = append(failed, c)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	for _, c := range failed {
		h.removeConn(c)
	}
}

// removeConn prunes conn from whichever registry holds it. Only called
// from the Run goroutine, like every other registry mutation.
func (h *Hub) removeConn(conn Connection) {
	for pid, c := range h.playerConns {
		if c == conn {
			delete(h.playerConns, pid)
			return
		}
	}
	delete(h.spectatorConns, conn)
}
