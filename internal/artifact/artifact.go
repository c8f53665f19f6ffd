// Package artifact holds the Eterna scoring model: the artifact record,
// the support transition, the idle decay step and the invariants every
// mutation has to preserve.
package artifact

import (
	"fmt"
	"time"
)

// Score bounds shared by fade level and extinction risk.
const (
	MinScore = 0
	MaxScore = 100

	// RiskFloor is the lowest extinction risk a supported artifact can reach.
	RiskFloor = 5
)

// Artifact is a recorded memory, skill, ritual or profession together with
// its decay and support state.
type Artifact struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"imageUrl"`
	Tags            []string  `json:"tags"`
	ExtinctionRisk  int       `json:"extinctionRisk"`
	FadeLevel       int       `json:"fadeLevel"`
	Narrative       string    `json:"aiNarrative,omitempty"`
	SupportCount    int       `json:"supportCount"`
	CreatedAt       time.Time `json:"createdAt"`
	LastSupportedAt time.Time `json:"lastSupportedAt"`
	TokenID         string    `json:"tokenId,omitempty"`
	Rarity          string    `json:"rarity,omitempty"`
}

// Scores is the mutable scoring state of an artifact. Support and decay
// both produce a new Scores value from an old one.
type Scores struct {
	FadeLevel       int
	ExtinctionRisk  int
	SupportCount    int
	LastSupportedAt time.Time
}

// Scores returns the scoring state of a.
func (a *Artifact) Scores() Scores {
	return Scores{
		FadeLevel:       a.FadeLevel,
		ExtinctionRisk:  a.ExtinctionRisk,
		SupportCount:    a.SupportCount,
		LastSupportedAt: a.LastSupportedAt,
	}
}

// Validate checks the scoring invariants of a stored artifact.
func (a *Artifact) Validate() error {
	return ValidateScores(a.Scores(), a.CreatedAt)
}

// ValidateScores checks s against the invariants that must hold after every
// mutation. createdAt may be zero when unknown.
func ValidateScores(s Scores, createdAt time.Time) error {
	if s.FadeLevel < MinScore || s.FadeLevel > MaxScore {
		return fmt.Errorf("%w: fade level %d outside [%d,%d]", ErrInvariant, s.FadeLevel, MinScore, MaxScore)
	}
	if s.ExtinctionRisk < MinScore || s.ExtinctionRisk > MaxScore {
		return fmt.Errorf("%w: extinction risk %d outside [%d,%d]", ErrInvariant, s.ExtinctionRisk, MinScore, MaxScore)
	}
	if s.SupportCount < 0 {
		return fmt.Errorf("%w: negative support count %d", ErrInvariant, s.SupportCount)
	}
	if s.SupportCount > 0 && s.ExtinctionRisk < RiskFloor {
		return fmt.Errorf("%w: supported artifact has risk %d below floor %d", ErrInvariant, s.ExtinctionRisk, RiskFloor)
	}
	if !createdAt.IsZero() && s.LastSupportedAt.Before(createdAt) {
		return fmt.Errorf("%w: last supported %s before created %s", ErrInvariant,
			s.LastSupportedAt.Format(time.RFC3339), createdAt.Format(time.RFC3339))
	}
	return nil
}

// Clamp bounds v to [MinScore, MaxScore].
func Clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
