package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Anika-Jha/Eterna/internal/artifact"
)

type seedComment struct {
	content string
	support int
}

type seedArtifact struct {
	artifact artifact.Artifact
	comments []seedComment
}

var sampleArtifacts = []seedArtifact{
	{
		artifact: artifact.Artifact{
			Title:          "Grandma's Sourdough Bread",
			Type:           "recipe",
			Description:    "A 100-year old sourdough starter recipe passed down through generations. Requires daily feeding and a warm environment.",
			ImageURL:       "https://images.unsplash.com/photo-1589367920969-ab8e050bf0ef?q=80&w=1000&auto=format&fit=crop",
			Tags:           []string{"baking", "family", "tradition"},
			ExtinctionRisk: 85,
			FadeLevel:      40,
			SupportCount:   12,
			Narrative:      "The warmth of a kitchen, the smell of yeast and time. A legacy that only survives if hands are willing to knead.",
		},
		comments: []seedComment{
			{"I remember my own grandmother making this. We need to keep these recipes alive!", 4},
			{"Is the starter difficult to maintain?", 1},
		},
	},
	{
		artifact: artifact.Artifact{
			Title:          "Watchmaking by Hand",
			Type:           "skill",
			Description:    "The delicate art of assembling mechanical timepieces without digital assistance. A meditative practice requiring immense focus.",
			ImageURL:       "https://images.unsplash.com/photo-1509048191080-d2984bad6ae5?q=80&w=1000&auto=format&fit=crop",
			Tags:           []string{"craftsmanship", "time", "focus"},
			ExtinctionRisk: 92,
			FadeLevel:      75,
			SupportCount:   5,
			Narrative:      "Tiny gears and springs, a heartbeat built from metal. As the digital age races forward, the metronome of the past slows.",
		},
		comments: []seedComment{
			{"Such a beautiful and lost art.", 7},
		},
	},
	{
		artifact: artifact.Artifact{
			Title:          "The Summer Solstice Bonfire",
			Type:           "ritual",
			Description:    "An annual gathering to celebrate the longest day of the year. Involves leaping over the flames and singing old folk songs.",
			ImageURL:       "https://images.unsplash.com/photo-1525087740718-9e0f2c58c7ef?q=80&w=1000&auto=format&fit=crop",
			Tags:           []string{"community", "nature", "celebration"},
			ExtinctionRisk: 45,
			FadeLevel:      10,
			SupportCount:   38,
			Narrative:      "Flames reaching for the brief night sky. A primal echo of when we gathered not around screens, but around the fire.",
		},
	},
}

// Seed inserts the sample archive when the database has no artifacts yet.
// It returns the number of artifacts inserted. All rows go in one
// transaction, so a failure leaves the database empty and Seed can be rerun.
func (db *DB) Seed(ctx context.Context) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin seed", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&count); err != nil {
		return 0, unavailable("count artifacts", err)
	}
	if count > 0 {
		return 0, nil
	}

	now := time.Now()
	for i, s := range sampleArtifacts {
		a := s.artifact
		a.Tags = append([]string(nil), s.artifact.Tags...)
		a.CreatedAt = now
		a.TokenID = fmt.Sprintf("ETR-SEED%d", i+1)
		a.Rarity = artifact.Rarities[(i*2)%len(artifact.Rarities)]
		if err := db.insertArtifact(ctx, tx, &a); err != nil {
			return 0, fmt.Errorf("seed %q: %w", a.Title, err)
		}
		for _, sc := range s.comments {
			c := artifact.Comment{
				ArtifactID:   a.ID,
				Content:      sc.content,
				SupportCount: sc.support,
				CreatedAt:    now,
			}
			if err := db.insertComment(ctx, tx, &c); err != nil {
				return 0, fmt.Errorf("seed comment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit seed", err)
	}
	return len(sampleArtifacts), nil
}
