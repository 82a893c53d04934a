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
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pizzahunt/internal/models"
)

// AddComment attaches a comment to a pizza and returns the updated pizza.
func (db *DB) AddComment(ctx context.Context, pizzaID string, in models.CommentInput) (models.Pizza, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var updated models.Pizza
	err := db.withTx(ctx, "insert", "comments", func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM pizzas WHERE id = ?)`, pizzaID).Scan(&exists); err != nil {
			return fmt.Errorf("look up pizza: %w", err)
		}
		if !exists {
			return ErrPizzaNotFound
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO comments (id, pizza_id, written_by, comment_body, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), pizzaID, in.WrittenBy, in.CommentBody, models.NewTimestamp(time.Now()).Time)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}

		updated, err = getPizza(ctx, tx, pizzaID)
		return err
	})
	return updated, err
}

// AddReply appends a reply to a comment and returns the updated comment.
func (db *DB) AddReply(ctx context.Context, commentID string, in models.ReplyInput) (models.Comment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var updated models.Comment
	err := db.withTx(ctx, "insert", "replies", func(tx *sql.Tx) error {
		if _, err := getComment(ctx, tx, commentID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO replies (id, comment_id, reply_body, written_by, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), commentID, in.ReplyBody, in.WrittenBy, models.NewTimestamp(time.Now()).Time)
		if err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}

		updated, err = getComment(ctx, tx, commentID)
		return err
	})
	return updated, err
}

// RemoveComment deletes a comment with its replies, pulls it from the parent
// pizza and returns that pizza.
func (db *DB) RemoveComment(ctx context.Context, commentID string) (models.Pizza, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var updated models.Pizza
	err := db.withTx(ctx, "delete", "comments", func(tx *sql.Tx) error {
		comment, err := getComment(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE comment_id = ?`, commentID); err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, commentID); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}

		updated, err = getPizza(ctx, tx, comment.PizzaID)
		return err
	})
	return updated, err
}

// RemoveReply pulls a reply out of a comment by reply ID and returns the
// updated comment. An unknown reply ID leaves the comment unchanged.
func (db *DB) RemoveReply(ctx context.Context, commentID, replyID string) (models.Comment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var updated models.Comment
	err := db.withTx(ctx, "delete", "replies", func(tx *sql.Tx) error {
		if _, err := getComment(ctx, tx, commentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM replies WHERE id = ? AND comment_id = ?`, replyID, commentID); err != nil {
			return fmt.Errorf("delete reply: %w", err)
		}

		var err error
		updated, err = getComment(ctx, tx, commentID)
		return err
	})
	return updated, err
}

func getComment(ctx context.Context, q querier, id string) (models.Comment, error) {
	var (
		c         models.Comment
		createdAt time.Time
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, pizza_id, written_by, comment_body, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.PizzaID, &c.WrittenBy, &c.CommentBody, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrCommentNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	c.CreatedAt = models.NewTimestamp(createdAt)

	replies, err := loadReplies(ctx, q, `WHERE comment_id = ?`, id)
	if err != nil {
		return models.Comment{}, err
	}
	c.SetReplies(replies[id])
	return c, nil
}

// loadComments returns comments grouped by pizza ID, each with its replies,
// in insertion order. An empty pizzaID loads comments for every pizza.
func loadComments(ctx context.Context, q querier, pizzaID string) (map[string][]models.Comment, error) {
	commentQuery := `SELECT id, pizza_id, written_by, comment_body, created_at FROM comments`
	replyFilter := ``
	var args []any
	if pizzaID != "" {
		commentQuery += ` WHERE pizza_id = ?`
		replyFilter = `WHERE comment_id IN (SELECT id FROM comments WHERE pizza_id = ?)`
		args = append(args, pizzaID)
	}
	commentQuery += ` ORDER BY seq`

	replies, err := loadReplies(ctx, q, replyFilter, args...)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, commentQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer closeWithLog(rows, "comment rows")

	grouped := make(map[string][]models.Comment)
	for rows.Next() {
		var (
			c         models.Comment
			createdAt time.Time
		)
		if err := rows.Scan(&c.ID, &c.PizzaID, &c.WrittenBy, &c.CommentBody, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = models.NewTimestamp(createdAt)
		c.SetReplies(replies[c.ID])
		grouped[c.PizzaID] = append(grouped[c.PizzaID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return grouped, nil
}

// loadReplies returns replies grouped by comment ID in insertion order.
func loadReplies(ctx context.Context, q querier, filter string, args ...any) (map[string][]models.Reply, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, comment_id, reply_body, written_by, created_at FROM replies `+filter+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer closeWithLog(rows, "reply rows")

	grouped := make(map[string][]models.Reply)
	for rows.Next() {
		var (
			r         models.Reply
			commentID string
			createdAt time.Time
		)
		if err := rows.Scan(&r.ReplyID, &commentID, &r.ReplyBody, &r.WrittenBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		r.CreatedAt = models.NewTimestamp(createdAt)
		grouped[commentID] = append(grouped[commentID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replies: %w", err)
	}
	return grouped, nil
}
