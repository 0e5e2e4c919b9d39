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

// UpsertHousehold creates a household or renames an existing one.
func (db *DB) UpsertHousehold(ctx context.Context, id, name string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("upsert household: %w: id is required", ErrInvalidInput)
	}
	return db.withTx(ctx, "upsert household", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO households (id, name, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
			id, name, time.Now().UTC())
		return err
	})
}

// UpsertPerson creates a person or replaces their name, age limit and boundaries.
func (db *DB) UpsertPerson(ctx context.Context, p *recommend.Person) error {
	if p == nil || strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.HouseholdID) == "" {
		return fmt.Errorf("upsert person: %w: id and household_id are required", ErrInvalidInput)
	}
	boundaries, err := encodeBoundaries(p.Boundaries)
	if err != nil {
		return err
	}
	return db.withTx(ctx, "upsert person", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO people (id, household_id, name, age_limit, boundaries, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   name = excluded.name, age_limit = excluded.age_limit, boundaries = excluded.boundaries`,
			p.ID, p.HouseholdID, p.Name, nullableInt(p.AgeLimit), boundaries, time.Now().UTC())
		return err
	})
}

// GetPerson returns one person or ErrNotFound.
func (db *DB) GetPerson(ctx context.Context, id string) (*recommend.Person, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, household_id, name, age_limit, boundaries FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// PeopleInHousehold returns the household's people ordered by creation, then ID.
// An unknown household returns ErrNotFound.
func (db *DB) PeopleInHousehold(ctx context.Context, householdID string) ([]recommend.Person, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var exists int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM households WHERE id = ?`, householdID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check household: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("household %s: %w", householdID, ErrNotFound)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, household_id, name, age_limit, boundaries FROM people
		 WHERE household_id = ? ORDER BY created_at, id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []recommend.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// UpdateBoundaries replaces a person's age limit and boundary map.
func (db *DB) UpdateBoundaries(ctx context.Context, personID string, ageLimit *int, boundaries map[string]bool) error {
	encoded, err := encodeBoundaries(boundaries)
	if err != nil {
		return err
	}
	return db.withTx(ctx, "update boundaries", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE people SET age_limit = ?, boundaries = ? WHERE id = ?`,
			nullableInt(ageLimit), encoded, personID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("person %s: %w", personID, ErrNotFound)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*recommend.Person, error) {
	var (
		p          recommend.Person
		ageLimit   sql.NullInt64
		boundaries string
	)
	if err := row.Scan(&p.ID, &p.HouseholdID, &p.Name, &ageLimit, &boundaries); err != nil {
		return nil, err
	}
	if ageLimit.Valid {
		v := int(ageLimit.Int64)
		p.AgeLimit = &v
	}
	if err := decodeJSONColumn(boundaries, &p.Boundaries); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeBoundaries(b map[string]bool) (string, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode boundaries: %w", err)
	}
	return string(data), nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
