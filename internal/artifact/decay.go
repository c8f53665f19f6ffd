package artifact

import "time"

// IdleThreshold is how long an artifact may go without support before the
// decay sweep starts fading it.
const IdleThreshold = time.Hour

// FadeIncrease is the fade added by one decay tick for the given risk:
// ceil(risk/10), between 1 and 10 for risk in [1,100].
func FadeIncrease(risk int) int {
	if risk <= 0 {
		return 0
	}
	return (risk + 9) / 10
}

// Decay computes the fade level after one tick at time now. ok is false when
// the artifact must be left untouched, either because it was supported within
// IdleThreshold or because the fade would not change.
func Decay(s Scores, now time.Time) (fade int, ok bool) {
	if now.Sub(s.LastSupportedAt) <= IdleThreshold {
		return s.FadeLevel, false
	}
	fade = min(MaxScore, s.FadeLevel+FadeIncrease(s.ExtinctionRisk))
	if fade == s.FadeLevel {
		return s.FadeLevel, false
	}
	return fade, true
}
