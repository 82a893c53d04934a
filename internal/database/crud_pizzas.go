// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
	"github.com/tomtom215/pizzahunt/internal/models"
)

const pizzaColumns = `id, pizza_name, created_by, size, toppings, COALESCE(idempotency_key, ''), created_at`

// CreatePizza stores one pizza. When the input carries an idempotency key
// that was already stored, the existing pizza is returned and nothing is
// inserted, so a replayed create has no additional effect.
func (db *DB) CreatePizza(ctx context.Context, in models.PizzaInput) (models.Pizza, error) {
	pizzas, err := db.CreatePizzas(ctx, []models.PizzaInput{in})
	if err != nil {
		return models.Pizza{}, err
	}
	return pizzas[0], nil
}

// CreatePizzas stores a batch of pizzas in one transaction and returns them
// in input order. Either every pizza is stored or none is.
func (db *DB) CreatePizzas(ctx context.Context, inputs []models.PizzaInput) ([]models.Pizza, error) {
	res, err := db.StorePizzas(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return res.Pizzas, nil
}

// StoreResult is the outcome of StorePizzas. Inserted[i] is false when
// Pizzas[i] was already stored under the same idempotency key.
type StoreResult struct {
	Pizzas   []models.Pizza
	Inserted []bool
}

// InsertedCount returns how many pizzas the call actually added.
func (r StoreResult) InsertedCount() int {
	n := 0
	for _, ok := range r.Inserted {
		if ok {
			n++
		}
	}
	return n
}

// StorePizzas is CreatePizzas that also reports which entries were new.
func (db *DB) StorePizzas(ctx context.Context, inputs []models.PizzaInput) (StoreResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(inputs) == 0 {
		return StoreResult{Pizzas: []models.Pizza{}, Inserted: []bool{}}, nil
	}

	db.createMu.Lock()
	defer db.createMu.Unlock()

	var res StoreResult
	err := db.withTx(ctx, "insert", "pizzas", func(tx *sql.Tx) error {
		res = StoreResult{
			Pizzas:   make([]models.Pizza, 0, len(inputs)),
			Inserted: make([]bool, 0, len(inputs)),
		}
		for i := range inputs {
			p, inserted, err := insertPizza(ctx, tx, inputs[i])
			if err != nil {
				return err
			}
			res.Pizzas = append(res.Pizzas, p)
			res.Inserted = append(res.Inserted, inserted)
		}
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return res, nil
}

// insertPizza reports false when the idempotency key was already stored.
func insertPizza(ctx context.Context, tx *sql.Tx, in models.PizzaInput) (models.Pizza, bool, error) {
	in.Normalize()

	if in.IdempotencyKey != "" {
		existing, err := getPizzaByKey(ctx, tx, in.IdempotencyKey)
		switch {
		case err == nil:
			metrics.DuplicateCreatesSkipped.Inc()
			logging.Ctx(ctx).Debug().
				Str("idempotency_key", in.IdempotencyKey).
				Str("pizza_id", existing.ID).
				Msg("Duplicate create skipped")
			return existing, false, nil
		case !errors.Is(err, ErrPizzaNotFound):
			return models.Pizza{}, false, err
		}
	}

	toppings, err := json.Marshal(in.Toppings)
	if err != nil {
		return models.Pizza{}, false, fmt.Errorf("encode toppings: %w", err)
	}

	p := models.Pizza{
		ID:             uuid.New().String(),
		PizzaName:      in.PizzaName,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      models.NewTimestamp(time.Now()),
		Size:           in.Size,
		Toppings:       in.Toppings,
		Comments:       []models.Comment{},
		IdempotencyKey: in.IdempotencyKey,
	}

	var key any
	if in.IdempotencyKey != "" {
		key = in.IdempotencyKey
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pizzas (id, pizza_name, created_by, size, toppings, idempotency_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PizzaName, p.CreatedBy, p.Size, string(toppings), key, p.CreatedAt.Time)
	if err != nil {
		return models.Pizza{}, false, fmt.Errorf("insert pizza: %w", err)
	}
	return p, true, nil
}

func getPizzaByKey(ctx context.Context, q querier, key string) (models.Pizza, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+pizzaColumns+` FROM pizzas WHERE idempotency_key = ? LIMIT 1`, key)
	p, err := scanPizza(row)
	if err != nil {
		return models.Pizza{}, err
	}
	comments, err := loadComments(ctx, q, p.ID)
	if err != nil {
		return models.Pizza{}, err
	}
	p.SetComments(comments[p.ID])
	return p, nil
}

// ListPizzas returns every pizza, newest first, with comments and replies
// populated in the order they were added.
func (db *DB) ListPizzas(ctx context.Context) ([]models.Pizza, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	pizzas, err := db.listPizzas(ctx)
	metrics.RecordDBQuery("select", "pizzas", time.Since(start), err)
	return pizzas, err
}

func (db *DB) listPizzas(ctx context.Context) ([]models.Pizza, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+pizzaColumns+` FROM pizzas ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("query pizzas: %w", err)
	}
	defer closeWithLog(rows, "pizza rows")

	pizzas := []models.Pizza{}
	for rows.Next() {
		p, err := scanPizza(rows)
		if err != nil {
			return nil, err
		}
		pizzas = append(pizzas, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pizzas: %w", err)
	}

	comments, err := loadComments(ctx, db.conn, "")
	if err != nil {
		return nil, err
	}
	for i := range pizzas {
		pizzas[i].SetComments(comments[pizzas[i].ID])
	}
	return pizzas, nil
}

// GetPizza returns one pizza with its comments populated, or ErrPizzaNotFound.
func (db *DB) GetPizza(ctx context.Context, id string) (models.Pizza, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	p, err := getPizza(ctx, db.conn, id)
	metrics.RecordDBQuery("select", "pizzas", time.Since(start), ignoreNotFound(err))
	return p, err
}

func getPizza(ctx context.Context, q querier, id string) (models.Pizza, error) {
	row := q.QueryRowContext(ctx, `SELECT `+pizzaColumns+` FROM pizzas WHERE id = ?`, id)
	p, err := scanPizza(row)
	if err != nil {
		return models.Pizza{}, err
	}
	comments, err := loadComments(ctx, q, id)
	if err != nil {
		return models.Pizza{}, err
	}
	p.SetComments(comments[id])
	return p, nil
}

// UpdatePizza applies the non-nil fields of upd and returns the updated pizza.
func (db *DB) UpdatePizza(ctx context.Context, id string, upd models.PizzaUpdate) (models.Pizza, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var sets []string
	var args []any
	if upd.PizzaName != nil {
		sets = append(sets, "pizza_name = ?")
		args = append(args, *upd.PizzaName)
	}
	if upd.CreatedBy != nil {
		sets = append(sets, "created_by = ?")
		args = append(args, *upd.CreatedBy)
	}
	if upd.Size != nil {
		sets = append(sets, "size = ?")
		args = append(args, *upd.Size)
	}
	if upd.Toppings != nil {
		toppings, err := json.Marshal(upd.Toppings)
		if err != nil {
			return models.Pizza{}, fmt.Errorf("encode toppings: %w", err)
		}
		sets = append(sets, "toppings = ?")
		args = append(args, string(toppings))
	}

	var updated models.Pizza
	err := db.withTx(ctx, "update", "pizzas", func(tx *sql.Tx) error {
		if len(sets) > 0 {
			res, err := tx.ExecContext(ctx,
				`UPDATE pizzas SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
				append(args, id)...)
			if err != nil {
				return fmt.Errorf("update pizza: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return ErrPizzaNotFound
			}
		}
		var err error
		updated, err = getPizza(ctx, tx, id)
		return err
	})
	return updated, err
}

// DeletePizza removes a pizza together with its comments and their replies
// and returns the pizza as it was before deletion.
func (db *DB) DeletePizza(ctx context.Context, id string) (models.Pizza, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var deleted models.Pizza
	err := db.withTx(ctx, "delete", "pizzas", func(tx *sql.Tx) error {
		var err error
		deleted, err = getPizza(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM replies WHERE comment_id IN (SELECT id FROM comments WHERE pizza_id = ?)`, id); err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE pizza_id = ?`, id); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pizzas WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete pizza: %w", err)
		}
		return nil
	})
	return deleted, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPizza(row rowScanner) (models.Pizza, error) {
	var (
		p         models.Pizza
		toppings  string
		createdAt time.Time
	)
	err := row.Scan(&p.ID, &p.PizzaName, &p.CreatedBy, &p.Size, &toppings, &p.IdempotencyKey, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pizza{}, ErrPizzaNotFound
	}
	if err != nil {
		return models.Pizza{}, fmt.Errorf("scan pizza: %w", err)
	}
	if err := json.Unmarshal([]byte(toppings), &p.Toppings); err != nil {
		return models.Pizza{}, fmt.Errorf("decode toppings for pizza %s: %w", p.ID, err)
	}
	if p.Toppings == nil {
		p.Toppings = []string{}
	}
	p.CreatedAt = models.NewTimestamp(createdAt)
	return p, nil
}

// ignoreNotFound keeps lookups of unknown IDs out of the error metric.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrPizzaNotFound) || errors.Is(err, ErrCommentNotFound) {
		return nil
	}
	return err
}
