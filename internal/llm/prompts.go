package llm

import (
	"context"
	"fmt"
	"strings"
)

// FallbackNarrative is stored when generation fails.
const FallbackNarrative = "This artifact hums with a quiet energy, hoping not to be forgotten."

// EmptyNarrative is stored when the provider answers with nothing.
const EmptyNarrative = "A memory suspended in digital amber, waiting for someone to care."

// NarrativePrompt builds the archivist prompt for a new artifact.
func NarrativePrompt(title, kind, description string) string {
	return fmt.Sprintf(`You are the archivist of Eterna, a digital museum of human memory.
Write a short (2-3 sentences) poetic and somewhat melancholic narrative about the following artifact being preserved before it fades into obscurity.
Artifact Title: %s
Type: %s
Description: %s`, title, kind, description)
}

// Narrate asks c for a narrative. It never returns an empty string: failures
// yield FallbackNarrative along with the error, blank answers EmptyNarrative.
func Narrate(ctx context.Context, c Client, title, kind, description string) (string, error) {
	resp, err := c.Complete(ctx, NarrativePrompt(title, kind, description))
	if err != nil {
		return FallbackNarrative, err
	}
	if resp == nil {
		return EmptyNarrative, nil
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return EmptyNarrative, nil
	}
	return text, nil
}
