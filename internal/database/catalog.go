// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/couchside/internal/recommend"
)

// Catalog returns every item with its offers, ordered by item ID.
func (db *DB) Catalog(ctx context.Context) ([]recommend.Item, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, year, metadata, flags, warnings FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []recommend.Item
	index := make(map[string]int)
	for rows.Next() {
		var (
			it                        recommend.Item
			metadata, flags, warnings string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Year, &metadata, &flags, &warnings); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if err := decodeJSONColumn(metadata, &it.Metadata); err != nil {
			return nil, fmt.Errorf("item %s metadata: %w", it.ID, err)
		}
		if err := decodeJSONColumn(flags, &it.Flags); err != nil {
			return nil, fmt.Errorf("item %s flags: %w", it.ID, err)
		}
		if err := decodeJSONColumn(warnings, &it.Warnings); err != nil {
			return nil, fmt.Errorf("item %s warnings: %w", it.ID, err)
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	if err := db.attachOffers(ctx, items, index); err != nil {
		return nil, err
	}
	return items, nil
}

func (db *DB) attachOffers(ctx context.Context, items []recommend.Item, index map[string]int) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT item_id, provider, kind, quality, season, updated_at
		 FROM offers ORDER BY item_id, provider, kind`)
	if err != nil {
		return fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID, kind string
			o            recommend.Offer
			updated      sql.NullTime
		)
		if err := rows.Scan(&itemID, &o.Provider, &kind, &o.Quality, &o.Season, &updated); err != nil {
			return fmt.Errorf("failed to scan offer: %w", err)
		}
		i, ok := index[itemID]
		if !ok {
			continue
		}
		o.Kind = recommend.ParseOfferKind(kind)
		if updated.Valid {
			o.UpdatedAt = updated.Time.UTC()
		}
		items[i].Offers = append(items[i].Offers, o)
	}
	return rows.Err()
}

// GetItem returns one item with its offers.
func (db *DB) GetItem(ctx context.Context, id string) (*recommend.Item, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		it                        recommend.Item
		metadata, flags, warnings string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, year, metadata, flags, warnings FROM items WHERE id = ?`, id).
		Scan(&it.ID, &it.Title, &it.Year, &metadata, &flags, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if err := decodeJSONColumn(metadata, &it.Metadata); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(flags, &it.Flags); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(warnings, &it.Warnings); err != nil {
		return nil, err
	}

	items := []recommend.Item{it}
	if err := db.attachOffers(ctx, items, map[string]int{id: 0}); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ItemExists reports whether the catalog holds id.
func (db *DB) ItemExists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return n > 0, nil
}

// UpsertItem inserts or replaces an item and replaces its offers.
func (db *DB) UpsertItem(ctx context.Context, it *recommend.Item) error {
	if it == nil || strings.TrimSpace(it.ID) == "" || strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("upsert item: %w: id and title are required", ErrInvalidInput)
	}
	metadata, err := json.Marshal(it.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	flags, err := json.Marshal(nonNil(it.Flags))
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	warnings, err := json.Marshal(nonNil(it.Warnings))
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	return db.withTx(ctx, "upsert item", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, title, year, metadata, flags, warnings, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   title = excluded.title, year = excluded.year, metadata = excluded.metadata,
			   flags = excluded.flags, warnings = excluded.warnings, updated_at = excluded.updated_at`,
			it.ID, it.Title, it.Year, string(metadata), string(flags), string(warnings), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		for _, o := range it.Offers {
			var updated any
			if !o.UpdatedAt.IsZero() {
				updated = o.UpdatedAt.UTC()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO offers (item_id, provider, kind, quality, season, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (item_id, provider, kind) DO UPDATE SET
				   quality = excluded.quality, season = excluded.season, updated_at = excluded.updated_at`,
				it.ID, o.Provider, string(o.Kind), o.Quality, o.Season, updated)
			if err != nil {
				return fmt.Errorf("insert offer %s/%s: %w", o.Provider, o.Kind, err)
			}
		}
		return pruneOffers(ctx, tx, it)
	})
}

// pruneOffers removes offers of it that are no longer listed. It runs after
// the upserts so no offer key is deleted and re-inserted in one transaction.
func pruneOffers(ctx context.Context, tx *sql.Tx, it *recommend.Item) error {
	if len(it.Offers) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE item_id = ?`, it.ID); err != nil {
			return fmt.Errorf("clear offers: %w", err)
		}
		return nil
	}
	keep := make([]string, len(it.Offers))
	for i, o := range it.Offers {
		keep[i] = o.Provider + "|" + string(o.Kind)
	}
	args := append([]any{it.ID}, stringArgs(keep)...)
	query := `DELETE FROM offers WHERE item_id = ? AND (provider || '|' || kind) NOT IN (` + placeholders(len(keep)) + `)`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune offers: %w", err)
	}
	return nil
}

// decodeJSONColumn decodes a TEXT JSON column. Empty text leaves dst untouched.
func decodeJSONColumn(raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
