package artifact

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
)

// Initial extinction risk range, inclusive.
const (
	MinInitialRisk = 20
	MaxInitialRisk = 100
)

// Input size limits.
const (
	maxTitleChars       = 200
	maxTypeChars        = 40
	maxDescriptionChars = 4000
	maxImageURLChars    = 2048
	maxTags             = 12
	maxTagChars         = 32
)

// Rarities are the collectible tiers assigned at creation.
var Rarities = []string{"Common", "Uncommon", "Rare", "Epic", "Legendary"}

// Rand is the randomness source used for creation-time assignments.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide math/rand/v2 source.
var DefaultRand Rand = globalRand{}

// InitialRisk draws a starting extinction risk uniformly from
// [MinInitialRisk, MaxInitialRisk].
func InitialRisk(r Rand) int {
	return MinInitialRisk + r.IntN(MaxInitialRisk-MinInitialRisk+1)
}

// RandomRarity picks one of Rarities uniformly.
func RandomRarity(r Rand) string {
	return Rarities[r.IntN(len(Rarities))]
}

// NewTokenID returns a display token such as "ETR-1E240".
func NewTokenID(r Rand) string {
	return fmt.Sprintf("ETR-%X", r.IntN(1_000_000))
}

// NewArtifact is the user-supplied part of an artifact at creation time.
type NewArtifact struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Tags        []string `json:"tags"`
}

// Normalize trims and validates n, returning a cleaned copy. The returned
// error is a *FieldError naming the first offending field.
func (n NewArtifact) Normalize() (NewArtifact, error) {
	n.Title = strings.TrimSpace(n.Title)
	n.Type = strings.ToLower(strings.TrimSpace(n.Type))
	n.Description = strings.TrimSpace(n.Description)
	n.ImageURL = strings.TrimSpace(n.ImageURL)

	switch {
	case n.Title == "":
		return n, &FieldError{Field: "title", Message: "required"}
	case len(n.Title) > maxTitleChars:
		return n, &FieldError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", maxTitleChars)}
	case n.Type == "":
		return n, &FieldError{Field: "type", Message: "required"}
	case len(n.Type) > maxTypeChars:
		return n, &FieldError{Field: "type", Message: fmt.Sprintf("must be at most %d characters", maxTypeChars)}
	case n.Description == "":
		return n, &FieldError{Field: "description", Message: "required"}
	case n.ImageURL == "":
		return n, &FieldError{Field: "imageUrl", Message: "required"}
	case len(n.ImageURL) > maxImageURLChars:
		return n, &FieldError{Field: "imageUrl", Message: fmt.Sprintf("must be at most %d characters", maxImageURLChars)}
	}

	if len(n.Description) > maxDescriptionChars {
		n.Description = truncateClean(n.Description, maxDescriptionChars)
	}

	tags := make([]string, 0, len(n.Tags))
	seen := make(map[string]bool, len(n.Tags))
	for _, t := range n.Tags {
		t = sanitizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return n, &FieldError{Field: "tags", Message: fmt.Sprintf("at most %d tags allowed", maxTags)}
	}
	n.Tags = tags
	return n, nil
}

// sanitizeTag lowercases a tag, turns separators into hyphens and drops
// everything outside [a-z0-9-].
func sanitizeTag(tag string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '.' || r == '/':
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxTagChars {
		out = strings.TrimRight(out[:maxTagChars], "-")
	}
	return out
}

// truncateClean cuts s to at most maxLen bytes, backing up to the last
// whitespace when one is close to the limit.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncated := s[:maxLen]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > maxLen-200 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
