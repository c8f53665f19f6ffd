package artifact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reaction is a closed set of comment reactions.
type Reaction string

const (
	ReactionLike      Reaction = "like"
	ReactionLove      Reaction = "love"
	ReactionWow       Reaction = "wow"
	ReactionSad       Reaction = "sad"
	ReactionCelebrate Reaction = "celebrate"
)

// Reactions lists every reaction in display order.
var Reactions = []Reaction{ReactionLike, ReactionLove, ReactionWow, ReactionSad, ReactionCelebrate}

var reactionEmoji = map[Reaction]string{
	ReactionLike:      "👍",
	ReactionLove:      "❤️",
	ReactionWow:       "😮",
	ReactionSad:       "😢",
	ReactionCelebrate: "🎉",
}

// ParseReaction accepts either a reaction name or its emoji.
func ParseReaction(s string) (Reaction, error) {
	s = strings.TrimSpace(s)
	for _, r := range Reactions {
		if s == string(r) || s == reactionEmoji[r] {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReaction, s)
}

// Emoji returns the glyph shown for r.
func (r Reaction) Emoji() string { return reactionEmoji[r] }

// ReactionCounts maps each reaction to how many times it was used.
type ReactionCounts map[Reaction]int

// NewReactionCounts returns counts with every reaction present at zero.
func NewReactionCounts() ReactionCounts {
	c := make(ReactionCounts, len(Reactions))
	for _, r := range Reactions {
		c[r] = 0
	}
	return c
}

// Add increments r. Unknown keys are rejected.
func (c ReactionCounts) Add(r Reaction) error {
	if _, ok := reactionEmoji[r]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidReaction, string(r))
	}
	c[r]++
	return nil
}

// MarshalJSON keys counts by glyph, the form the gallery indexes by.
func (c ReactionCounts) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(c))
	for r, n := range c {
		if g, ok := reactionEmoji[r]; ok {
			out[g] = n
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts glyph or name keys. Unknown keys are dropped, missing
// ones read as zero and duplicates of one reaction are summed.
func (c *ReactionCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	counts := NewReactionCounts()
	for k, n := range raw {
		if r, err := ParseReaction(k); err == nil {
			counts[r] += n
		}
	}
	*c = counts
	return nil
}
