package artifact

import (
	"fmt"
	"strings"
	"time"
)

const maxCommentChars = 2000

// Comment is a visitor note attached to an artifact.
type Comment struct {
	ID           int64          `json:"id"`
	ArtifactID   int64          `json:"artifactId"`
	Content      string         `json:"content"`
	SupportCount int            `json:"supportCount"`
	Reactions    ReactionCounts `json:"reactions"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// NormalizeComment trims content and checks its length.
func NormalizeComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", &FieldError{Field: "content", Message: "required"}
	}
	if len(content) > maxCommentChars {
		return "", &FieldError{Field: "content", Message: fmt.Sprintf("must be at most %d characters", maxCommentChars)}
	}
	return content, nil
}

// Stats summarises the archive for the dashboard.
type Stats struct {
	TotalArtifacts    int `json:"totalArtifacts"`
	AverageFadeLevel  int `json:"averageFadeLevel"`
	TotalInteractions int `json:"totalInteractions"`
	ArtifactsAtRisk   int `json:"artifactsAtRisk"`
}

// AtRiskFade is the fade level above which an artifact counts as at risk.
const AtRiskFade = 80
