// Package sqlite provides a SQLite-backed implementation of the snapshot
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
	"github.com/ewilliams-labs/songswap/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the snapshot repository port for SQLite.
type Adapter struct {
	db *sql.DB
}

var _ ports.SnapshotRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local dev
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Load reads the full snapshot for an identity. Returns domain.ErrNotFound
// when no player row exists.
func (a *Adapter) Load(ctx context.Context, identityID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var lastAccrualMs int64

	row := a.db.QueryRowContext(ctx, `
		SELECT coins, gems, level, xp, trades_completed, coins_spent, last_accrual_ms
		FROM players WHERE identity = ?
	`, identityID)
	if err := row.Scan(&snap.Coins, &snap.Gems, &snap.Level, &snap.XP,
		&snap.TradesCompleted, &snap.CoinsSpent, &lastAccrualMs); err != nil {
		if err == sql.ErrNoRows {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("failed to load player: %w", err)
	}
	snap.LastAccrual = time.UnixMilli(lastAccrualMs).UTC()

	items, err := a.loadCollection(ctx, identityID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Collection = items

	counts, err := a.loadGeneratorCounts(ctx, identityID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.GeneratorCounts = counts

	achievements, err := a.loadAchievements(ctx, identityID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Achievements = achievements

	return snap, nil
}

func (a *Adapter) loadCollection(ctx context.Context, identityID string) ([]domain.CollectionItem, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id, title, artist, popularity, preview_url, artwork_url,
			rarity, acquired_at_ms, method
		FROM collection_items
		WHERE identity = ?
		ORDER BY acquired_at_ms ASC, track_id ASC
	`, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	defer rows.Close()

	items := []domain.CollectionItem{}
	for rows.Next() {
		var item domain.CollectionItem
		var previewURL sql.NullString
		var artworkURL sql.NullString
		var acquiredAtMs int64
		if err := rows.Scan(
			&item.Track.ID,
			&item.Track.Title,
			&item.Track.Artist,
			&item.Track.Popularity,
			&previewURL,
			&artworkURL,
			&item.Rarity,
			&acquiredAtMs,
			&item.Method,
		); err != nil {
			return nil, fmt.Errorf("failed to scan collection item: %w", err)
		}
		if previewURL.Valid {
			item.Track.PreviewURL = previewURL.String
		}
		if artworkURL.Valid {
			item.Track.ArtworkURL = artworkURL.String
		}
		item.AcquiredAt = time.UnixMilli(acquiredAtMs).UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection: %w", err)
	}

	return items, nil
}

func (a *Adapter) loadGeneratorCounts(ctx context.Context, identityID string) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT generator_id, count FROM generator_counts WHERE identity = ?", identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load generator counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan generator count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generator counts: %w", err)
	}

	return counts, nil
}

func (a *Adapter) loadAchievements(ctx context.Context, identityID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT achievement_id FROM achievements WHERE identity = ? ORDER BY achievement_id ASC", identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}

	return ids, nil
}

// Save writes the snapshot atomically: the player row is upserted and the
// child tables are reset and reinserted inside one transaction.
func (a *Adapter) Save(ctx context.Context, identityID string, snap domain.Snapshot) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error/panic before commit

	queryPlayer := `
		INSERT INTO players (identity, coins, gems, level, xp, trades_completed, coins_spent, last_accrual_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			coins=excluded.coins,
			gems=excluded.gems,
			level=excluded.level,
			xp=excluded.xp,
			trades_completed=excluded.trades_completed,
			coins_spent=excluded.coins_spent,
			last_accrual_ms=excluded.last_accrual_ms;
	`
	if _, err := tx.ExecContext(ctx, queryPlayer, identityID, snap.Coins, snap.Gems,
		snap.Level, snap.XP, snap.TradesCompleted, snap.CoinsSpent, snap.LastAccrual.UnixMilli()); err != nil {
		return fmt.Errorf("%w: failed to save player: %v", domain.ErrStorage, err)
	}

	for _, table := range []string{"collection_items", "generator_counts", "achievements"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE identity = ?", identityID); err != nil {
			return fmt.Errorf("%w: failed to clear %s: %v", domain.ErrStorage, table, err)
		}
	}

	stmtItem, err := tx.PrepareContext(ctx, `
		INSERT INTO collection_items (
			identity, track_id, title, artist, popularity, preview_url, artwork_url,
			rarity, acquired_at_ms, method
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer stmtItem.Close()

	for _, item := range snap.Collection {
		if _, err := stmtItem.ExecContext(ctx,
			identityID,
			item.Track.ID,
			item.Track.Title,
			item.Track.Artist,
			item.Track.Popularity,
			item.Track.PreviewURL,
			item.Track.ArtworkURL,
			string(item.Rarity),
			item.AcquiredAt.UnixMilli(),
			string(item.Method),
		); err != nil {
			return fmt.Errorf("%w: failed to save collection item %s: %v", domain.ErrStorage, item.Track.ID, err)
		}
	}

	stmtCount, err := tx.PrepareContext(ctx, `
		INSERT INTO generator_counts (identity, generator_id, count) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer stmtCount.Close()

	for id, count := range snap.GeneratorCounts {
		if _, err := stmtCount.ExecContext(ctx, identityID, id, count); err != nil {
			return fmt.Errorf("%w: failed to save generator count %s: %v", domain.ErrStorage, id, err)
		}
	}

	stmtAch, err := tx.PrepareContext(ctx, `
		INSERT INTO achievements (identity, achievement_id) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer stmtAch.Close()

	for _, id := range snap.Achievements {
		if _, err := stmtAch.ExecContext(ctx, identityID, id); err != nil {
			return fmt.Errorf("%w: failed to save achievement %s: %v", domain.ErrStorage, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: transaction commit failed: %v", domain.ErrStorage, err)
	}

	return nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS players (
		identity TEXT PRIMARY KEY,
		coins INTEGER NOT NULL,
		gems INTEGER NOT NULL,
		level INTEGER NOT NULL,
		xp INTEGER NOT NULL,
		trades_completed INTEGER NOT NULL DEFAULT 0,
		coins_spent INTEGER NOT NULL DEFAULT 0,
		last_accrual_ms INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS collection_items (
		identity TEXT NOT NULL,
		track_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		popularity INTEGER NOT NULL,
		preview_url TEXT,
		artwork_url TEXT,
		rarity TEXT NOT NULL,
		acquired_at_ms INTEGER NOT NULL,
		method TEXT NOT NULL,
		PRIMARY KEY (identity, track_id),
		FOREIGN KEY(identity) REFERENCES players(identity) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS generator_counts (
		identity TEXT NOT NULL,
		generator_id TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (identity, generator_id),
		FOREIGN KEY(identity) REFERENCES players(identity) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS achievements (
		identity TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		PRIMARY KEY (identity, achievement_id),
		FOREIGN KEY(identity) REFERENCES players(identity) ON DELETE CASCADE
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	return nil
}
