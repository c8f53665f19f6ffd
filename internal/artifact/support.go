package artifact

import "time"

// SupportFadeReduction is the flat fade drop applied by every support action.
const SupportFadeReduction = 20

// ApplySupport returns the scores that result from performing action on an
// artifact currently in state s at time now. Fade drops by a flat amount,
// risk drops by an action-specific amount floored at RiskFloor. action must
// already be validated with ParseAction.
func ApplySupport(s Scores, action Action, now time.Time) Scores {
	fade := max(MinScore, s.FadeLevel-SupportFadeReduction)

	risk := max(RiskFloor, s.ExtinctionRisk-action.riskReduction())

	last := now
	if last.Before(s.LastSupportedAt) {
		last = s.LastSupportedAt
	}

	return Scores{
		FadeLevel:       Clamp(fade),
		ExtinctionRisk:  Clamp(risk),
		SupportCount:    s.SupportCount + 1,
		LastSupportedAt: last,
	}
}
