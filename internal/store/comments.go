package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Anika-Jha/Eterna/internal/artifact"
)

const commentColumns = `id, artifact_id, content, support_count, reactions, created_at`

// maxReactRetries bounds the optimistic retry loop in ReactToComment.
const maxReactRetries = 5

// ListComments returns the comments on an artifact, newest first.
func (db *DB) ListComments(ctx context.Context, artifactID int64) ([]artifact.Comment, error) {
	rows, err := db.query(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE artifact_id = ?
		ORDER BY created_at DESC, id DESC
	`, artifactID)
	if err != nil {
		return nil, unavailable("list comments", err)
	}
	defer rows.Close()

	out := []artifact.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, unavailable("scan comment", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list comments", err)
	}
	return out, nil
}

// GetComment returns a comment by id, or an error matching artifact.ErrNotFound.
func (db *DB) GetComment(ctx context.Context, id int64) (*artifact.Comment, error) {
	c, err := scanComment(db.queryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, artifact.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get comment %d", id), err)
	}
	return c, nil
}

// CreateComment attaches a new comment to an existing artifact.
func (db *DB) CreateComment(ctx context.Context, artifactID int64, content string) (*artifact.Comment, error) {
	if _, err := db.GetArtifact(ctx, artifactID); err != nil {
		return nil, err
	}

	c := &artifact.Comment{
		ArtifactID: artifactID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := db.insertComment(ctx, db.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}

// insertComment writes c with its current support count. Missing reactions
// start at zero.
func (db *DB) insertComment(ctx context.Context, q querier, c *artifact.Comment) error {
	if c.Reactions == nil {
		c.Reactions = artifact.NewReactionCounts()
	}
	c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Millisecond)
	reactions, err := json.Marshal(c.Reactions)
	if err != nil {
		return fmt.Errorf("encode reactions: %w", err)
	}

	err = q.QueryRowContext(ctx, db.rebind(`
		INSERT INTO comments (artifact_id, content, support_count, reactions, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), c.ArtifactID, c.Content, c.SupportCount, string(reactions), c.CreatedAt.UnixMilli()).Scan(&c.ID)
	if err != nil {
		return unavailable("create comment", err)
	}
	return nil
}

// SupportComment increments a comment's support count.
func (db *DB) SupportComment(ctx context.Context, id int64) (*artifact.Comment, error) {
	c, err := scanComment(db.queryRow(ctx, `
		UPDATE comments SET support_count = support_count + 1
		WHERE id = ?
		RETURNING `+commentColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, artifact.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("support comment %d", id), err)
	}
	return c, nil
}

// ReactToComment increments one reaction counter. The read-modify-write is
// guarded by the previous JSON value and retried when another writer wins.
func (db *DB) ReactToComment(ctx context.Context, id int64, r artifact.Reaction) (*artifact.Comment, error) {
	for attempt := 0; attempt < maxReactRetries; attempt++ {
		var raw string
		err := db.queryRow(ctx, `SELECT reactions FROM comments WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, artifact.ErrNotFound)
		}
		if err != nil {
			return nil, unavailable(fmt.Sprintf("read reactions %d", id), err)
		}

		counts, err := decodeReactions(raw)
		if err != nil {
			return nil, fmt.Errorf("comment %d: %w", id, err)
		}
		if err := counts.Add(r); err != nil {
			return nil, err
		}
		next, err := json.Marshal(counts)
		if err != nil {
			return nil, fmt.Errorf("encode reactions: %w", err)
		}

		c, err := scanComment(db.queryRow(ctx, `
			UPDATE comments SET reactions = ?
			WHERE id = ? AND reactions = ?
			RETURNING `+commentColumns, string(next), id, raw))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, unavailable(fmt.Sprintf("react to comment %d", id), err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("react to comment %d: %w", id, artifact.ErrConflict)
}

// CountComments returns the total number of comments.
func (db *DB) CountComments(ctx context.Context) (int, error) {
	var n int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n); err != nil {
		return 0, unavailable("count comments", err)
	}
	return n, nil
}

func scanComment(s scanner) (*artifact.Comment, error) {
	var c artifact.Comment
	var reactions string
	var createdAt int64
	if err := s.Scan(&c.ID, &c.ArtifactID, &c.Content, &c.SupportCount, &reactions, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	counts, err := decodeReactions(reactions)
	if err != nil {
		return nil, err
	}
	c.Reactions = counts
	return &c, nil
}

// decodeReactions parses stored counts, dropping unknown keys and filling in
// missing ones with zero.
func decodeReactions(raw string) (artifact.ReactionCounts, error) {
	if raw == "" {
		return artifact.NewReactionCounts(), nil
	}
	var counts artifact.ReactionCounts
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	return counts, nil
}
