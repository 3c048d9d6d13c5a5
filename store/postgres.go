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

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frankkopp/chessserver/chess"
	"github.com/frankkopp/chessserver/game"
	"github.com/frankkopp/chessserver/ids"
	"github.com/frankkopp/chessserver/logging"
)

var pgLog = logging.GetLog("store")

// PostgresRepository is a GameRepository backed by a `games` table and
// an ordered `moves` table: games hold the authoritative FEN/status
// snapshot, moves hold the ordered from/to/promotion history.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository opens a pgxpool against dsn. The pool is
// lazily connected by pgx; callers should ping or run a trivial query
// after construction if they want fail-fast startup behavior.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

const upsertGameSQL = `
INSERT INTO games (id, white_user_id, black_user_id, white_player_id, black_player_id,
                    fen, current_side, status, draw_offer, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	fen = EXCLUDED.fen,
	current_side = EXCLUDED.current_side,
	status = EXCLUDED.status,
	draw_offer = EXCLUDED.draw_offer,
	updated_at = EXCLUDED.updated_at
`

// Save upserts g's games row and appends any moves not yet persisted.
// It runs inside a single transaction so a partial failure (e.g. the
// moves insert failing after the games upsert succeeded) rolls back
// entirely, matching the "failed save aborts the transition" contract.
func (r *PostgresRepository) Save(ctx context.Context, g *game.Game) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		pgLog.Errorf("begin tx for game %s: %v", g.ID, err)
		return fmt.Errorf("%w: begin tx: %v", ErrPersistenceFailure, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, upsertGameSQL,
		g.ID.String(),
		g.White.UserID.String(),
		g.Black.UserID.String(),
		g.White.ID.String(),
		g.Black.ID.String(),
		g.Position().ToFEN(),
		g.CurrentSide().String(),
		string(g.Status()),
		int(g.PendingDrawOffer()),
		g.CreatedAt(),
		g.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert game: %v", ErrPersistenceFailure, err)
	}

	var persistedCount int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM moves WHERE game_id = $1`, g.ID.String()).Scan(&persistedCount); err != nil {
		return fmt.Errorf("%w: counting moves: %v", ErrPersistenceFailure, err)
	}

	history := g.History()
	for i := persistedCount; i < len(history); i++ {
		h := history[i]
		var promotion interface{}
		if h.Move.Promotion != chess.PtNone {
			promotion = h.Move.Promotion.String()
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO moves (game_id, move_number, from_square, to_square, promotion, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			g.ID.String(), i+1, h.Move.From.String(), h.Move.To.String(), promotion, h.PlayedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: insert move %d: %v", ErrPersistenceFailure, i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit tx: %v", ErrPersistenceFailure, err)
	}
	return nil
}

// FindByID loads a game row plus its ordered moves and replays them
// onto a fresh starting position to reconstruct history entries, then
// restores the aggregate via game.Restore.
func (r *PostgresRepository) FindByID(ctx context.Context, id ids.GameId) (*game.Game, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT white_user_id, black_user_id, white_player_id, black_player_id,
		       fen, status, draw_offer, created_at, updated_at
		FROM games WHERE id = $1`, id.String())

	var whiteUserStr, blackUserStr, whitePlayerStr, blackPlayerStr, fen, status string
	var drawOfferInt int
	var createdAt, updatedAt time.Time
	err := row.Scan(&whiteUserStr, &blackUserStr, &whitePlayerStr, &blackPlayerStr,
		&fen, &status, &drawOfferInt, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		pgLog.Errorf("loading game %s: %v", id, err)
		return nil, fmt.Errorf("%w: loading game: %v", ErrPersistenceFailure, err)
	}

	whiteUser, err := ids.ParseUserId(whiteUserStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad white_user_id: %v", ErrPersistenceFailure, err)
	}
	blackUser, err := ids.ParseUserId(blackUserStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad black_user_id: %v", ErrPersistenceFailure, err)
	}
	whitePlayer, err := ids.ParsePlayerId(whitePlayerStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad white_player_id: %v", ErrPersistenceFailure, err)
	}
	blackPlayer, err := ids.ParsePlayerId(blackPlayerStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad black_player_id: %v", ErrPersistenceFailure, err)
	}

	history, err := r.loadMoveHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	g, err := game.Restore(
		id,
		game.Player{ID: whitePlayer, UserID: whiteUser, Side: chess.White},
		game.Player{ID: blackPlayer, UserID: blackUser, Side: chess.Black},
		fen,
		game.Status(status),
		game.DrawOffer(drawOfferInt),
		history,
		createdAt,
		updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: restoring game: %v", ErrPersistenceFailure, err)
	}
	return g, nil
}

func (r *PostgresRepository) loadMoveHistory(ctx context.Context, id ids.GameId) ([]game.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT from_square, to_square, promotion, created_at
		FROM moves WHERE game_id = $1 ORDER BY move_number ASC`, id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: loading moves: %v", ErrPersistenceFailure, err)
	}
	defer rows.Close()

	pos := chess.NewStartingPosition()
	var history []game.HistoryEntry
	for rows.Next() {
		var from, to string
		var promotion *string
		var playedAt time.Time
		if err := rows.Scan(&from, &to, &promotion, &playedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning move: %v", ErrPersistenceFailure, err)
		}
		m := chess.Move{From: chess.MakeSquare(from), To: chess.MakeSquare(to)}
		if promotion != nil {
			if pt, ok := chess.PromotionPieceTypeFromName(*promotion); ok {
				m.Promotion = pt
			}
		}
		pos = pos.ApplyMove(m)
		history = append(history, game.HistoryEntry{
			Move:      m,
			ResultFEN: pos.ToFEN(),
			PlayedAt:  playedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating moves: %v", ErrPersistenceFailure, err)
	}
	return history, nil
}

var _ GameRepository = (*PostgresRepository)(nil)
