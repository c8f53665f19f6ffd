package store

import (
	"context"
	"math"

	"github.com/Anika-Jha/Eterna/internal/artifact"
)

// Stats computes dashboard totals in two aggregate queries.
func (db *DB) Stats(ctx context.Context) (artifact.Stats, error) {
	var total, fadeSum, supportSum, atRisk int64
	err := db.queryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(fade_level), 0),
			COALESCE(SUM(support_count), 0),
			COALESCE(SUM(CASE WHEN fade_level > ? THEN 1 ELSE 0 END), 0)
		FROM artifacts
	`, artifact.AtRiskFade).Scan(&total, &fadeSum, &supportSum, &atRisk)
	if err != nil {
		return artifact.Stats{}, unavailable("artifact stats", err)
	}

	comments, err := db.CountComments(ctx)
	if err != nil {
		return artifact.Stats{}, err
	}

	s := artifact.Stats{
		TotalArtifacts:    int(total),
		TotalInteractions: int(supportSum) + comments,
		ArtifactsAtRisk:   int(atRisk),
	}
	if total > 0 {
		s.AverageFadeLevel = int(math.Round(float64(fadeSum) / float64(total)))
	}
	return s, nil
}
