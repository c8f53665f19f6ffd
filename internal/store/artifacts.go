package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Anika-Jha/Eterna/internal/artifact"
)

const artifactColumns = `id, title, type, description, image_url, tags, extinction_risk, fade_level,
	support_count, ai_narrative, created_at, last_supported_at, token_id, rarity`

// Patch is a partial update of an artifact's mutable fields. Nil fields are
// left unchanged.
type Patch struct {
	FadeLevel       *int
	ExtinctionRisk  *int
	SupportCount    *int
	LastSupportedAt *time.Time
	Narrative       *string

	// IfSupportCount makes the write conditional: it only applies while the
	// stored support count still equals this value, otherwise ErrConflict.
	IfSupportCount *int
}

// ScoresPatch builds a Patch that writes all four scoring fields of s.
func ScoresPatch(s artifact.Scores) Patch {
	last := s.LastSupportedAt
	return Patch{
		FadeLevel:       &s.FadeLevel,
		ExtinctionRisk:  &s.ExtinctionRisk,
		SupportCount:    &s.SupportCount,
		LastSupportedAt: &last,
	}
}

func (p Patch) empty() bool {
	return p.FadeLevel == nil && p.ExtinctionRisk == nil && p.SupportCount == nil &&
		p.LastSupportedAt == nil && p.Narrative == nil
}

// validate rejects field values that can never be stored, before touching
// the database.
func (p Patch) validate() error {
	if p.FadeLevel != nil && artifact.Clamp(*p.FadeLevel) != *p.FadeLevel {
		return fmt.Errorf("%w: fade level %d", artifact.ErrInvariant, *p.FadeLevel)
	}
	if p.ExtinctionRisk != nil && artifact.Clamp(*p.ExtinctionRisk) != *p.ExtinctionRisk {
		return fmt.Errorf("%w: extinction risk %d", artifact.ErrInvariant, *p.ExtinctionRisk)
	}
	if p.SupportCount != nil && *p.SupportCount < 0 {
		return fmt.Errorf("%w: support count %d", artifact.ErrInvariant, *p.SupportCount)
	}
	return nil
}

// ListArtifacts returns every artifact, newest first.
func (db *DB) ListArtifacts(ctx context.Context) ([]artifact.Artifact, error) {
	rows, err := db.query(ctx, `SELECT `+artifactColumns+` FROM artifacts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, unavailable("list artifacts", err)
	}
	defer rows.Close()

	var out []artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, unavailable("scan artifact", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list artifacts", err)
	}
	return out, nil
}

// GetArtifact returns the artifact with the given id, or an error matching
// artifact.ErrNotFound.
func (db *DB) GetArtifact(ctx context.Context, id int64) (*artifact.Artifact, error) {
	row := db.queryRow(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %d: %w", id, artifact.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get artifact %d", id), err)
	}
	return a, nil
}

// CreateArtifact inserts a. CreatedAt defaults to now and LastSupportedAt to
// CreatedAt. On success a.ID and the timestamps are filled in.
func (db *DB) CreateArtifact(ctx context.Context, a *artifact.Artifact) error {
	return db.insertArtifact(ctx, db.DB, a)
}

func (db *DB) insertArtifact(ctx context.Context, q querier, a *artifact.Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Millisecond)
	if a.LastSupportedAt.IsZero() {
		a.LastSupportedAt = a.CreatedAt
	}
	a.LastSupportedAt = a.LastSupportedAt.UTC().Truncate(time.Millisecond)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if err := a.Validate(); err != nil {
		return err
	}

	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	err = q.QueryRowContext(ctx, db.rebind(`
		INSERT INTO artifacts (title, type, description, image_url, tags, extinction_risk, fade_level,
			support_count, ai_narrative, created_at, last_supported_at, token_id, rarity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		RETURNING id
	`), a.Title, a.Type, a.Description, a.ImageURL, string(tags), a.ExtinctionRisk, a.FadeLevel,
		a.SupportCount, a.Narrative, a.CreatedAt.UnixMilli(), a.LastSupportedAt.UnixMilli(),
		a.TokenID, a.Rarity).Scan(&a.ID)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("create artifact: %w: %v", artifact.ErrInvariant, err)
		}
		return unavailable("create artifact", err)
	}
	return nil
}

// UpdateArtifact applies p to the artifact with the given id as a single
// statement and returns the stored result. Support count may never go down.
func (db *DB) UpdateArtifact(ctx context.Context, id int64, p Patch) (*artifact.Artifact, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.empty() {
		return db.GetArtifact(ctx, id)
	}

	var sets []string
	var args []any
	if p.FadeLevel != nil {
		sets = append(sets, "fade_level = ?")
		args = append(args, *p.FadeLevel)
	}
	if p.ExtinctionRisk != nil {
		sets = append(sets, "extinction_risk = ?")
		args = append(args, *p.ExtinctionRisk)
	}
	if p.SupportCount != nil {
		sets = append(sets, "support_count = ?")
		args = append(args, *p.SupportCount)
	}
	if p.LastSupportedAt != nil {
		sets = append(sets, "last_supported_at = ?")
		args = append(args, p.LastSupportedAt.UTC().UnixMilli())
	}
	if p.Narrative != nil {
		sets = append(sets, "ai_narrative = ?")
		args = append(args, *p.Narrative)
	}

	where := []string{"id = ?"}
	args = append(args, id)
	if p.IfSupportCount != nil {
		where = append(where, "support_count = ?")
		args = append(args, *p.IfSupportCount)
	}
	if p.SupportCount != nil {
		where = append(where, "support_count <= ?")
		args = append(args, *p.SupportCount)
	}

	q := `UPDATE artifacts SET ` + strings.Join(sets, ", ") +
		` WHERE ` + strings.Join(where, " AND ") +
		` RETURNING ` + artifactColumns
	a, err := scanArtifact(db.queryRow(ctx, q, args...))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if isConstraintError(err) {
			return nil, fmt.Errorf("update artifact %d: %w: %v", id, artifact.ErrInvariant, err)
		}
		return nil, unavailable(fmt.Sprintf("update artifact %d", id), err)
	}

	// No row matched: work out which condition failed.
	current, gerr := db.GetArtifact(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	if p.IfSupportCount != nil && current.SupportCount != *p.IfSupportCount {
		return nil, fmt.Errorf("update artifact %d: %w: support count is %d, expected %d",
			id, artifact.ErrConflict, current.SupportCount, *p.IfSupportCount)
	}
	if p.SupportCount != nil && current.SupportCount > *p.SupportCount {
		return nil, fmt.Errorf("update artifact %d: %w: support count %d cannot drop to %d",
			id, artifact.ErrInvariant, current.SupportCount, *p.SupportCount)
	}
	return nil, fmt.Errorf("update artifact %d: %w", id, artifact.ErrConflict)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(s scanner) (*artifact.Artifact, error) {
	var a artifact.Artifact
	var tags string
	var narrative, tokenID, rarity sql.NullString
	var createdAt, lastSupported int64
	if err := s.Scan(&a.ID, &a.Title, &a.Type, &a.Description, &a.ImageURL, &tags,
		&a.ExtinctionRisk, &a.FadeLevel, &a.SupportCount, &narrative,
		&createdAt, &lastSupported, &tokenID, &rarity); err != nil {
		return nil, err
	}
	a.Narrative = narrative.String
	a.TokenID = tokenID.String
	a.Rarity = rarity.String
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	a.LastSupportedAt = time.UnixMilli(lastSupported).UTC()
	a.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for artifact %d: %w", a.ID, err)
		}
	}
	return &a, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, artifact.ErrStorageUnavailable, err)
}

// isConstraintError reports whether err came from a CHECK or foreign key
// failure. Both drivers put the constraint kind in the message.
func isConstraintError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint")
}
