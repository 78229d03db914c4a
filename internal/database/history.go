// internal/database/history.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/newsquiz/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_results (
	id            UUID PRIMARY KEY,
	room_code     TEXT NOT NULL,
	player_id     TEXT NOT NULL,
	player_name   TEXT NOT NULL,
	article_title TEXT,
	article_url   TEXT,
	finished_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS match_scores (
	match_id     UUID NOT NULL REFERENCES match_results(id) ON DELETE CASCADE,
	position     INT NOT NULL,
	name         TEXT NOT NULL,
	score        INT NOT NULL,
	is_host      BOOLEAN NOT NULL DEFAULT FALSE,
	has_finished BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (match_id, position)
);
`

// EnsureSchema creates the match history tables if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertMatchRecords stores a batch of records in one transaction. Records
// already stored (same id) are skipped.
func InsertMatchRecords(ctx context.Context, pool *pgxpool.Pool, recs []models.MatchRecord) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertMatchRecordTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert match %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func insertMatchRecordTx(ctx context.Context, tx pgx.Tx, rec models.MatchRecord) error {
	var title, url *string
	if rec.Article != nil {
		title, url = &rec.Article.Title, &rec.Article.URL
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO match_results (id, room_code, player_id, player_name, article_title, article_url, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.RoomCode, rec.PlayerID, rec.PlayerName, title, url, time.UnixMilli(rec.FinishedAt).UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	for i, e := range rec.Leaderboard {
		_, err := tx.Exec(ctx, `
			INSERT INTO match_scores (match_id, position, name, score, is_host, has_finished)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rec.ID, i+1, e.Name, e.Score, e.IsHost, e.HasFinished)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecentMatches returns the latest records for a player, newest first, without leaderboards.
func RecentMatches(ctx context.Context, pool *pgxpool.Pool, playerName string, limit int) ([]models.MatchRecord, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, room_code, player_id, player_name, COALESCE(article_title, ''), COALESCE(article_url, ''), finished_at
		FROM match_results
		WHERE player_name = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`, playerName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MatchRecord
	for rows.Next() {
		var rec models.MatchRecord
		var title, url string
		var finished time.Time
		if err := rows.Scan(&rec.ID, &rec.RoomCode, &rec.PlayerID, &rec.PlayerName, &title, &url, &finished); err != nil {
			return nil, err
		}
		if title != "" || url != "" {
			rec.Article = &models.Article{Title: title, URL: url}
		}
		rec.FinishedAt = finished.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}
