// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import "github.com/danielhkuo/munvote/models"

// Count aggregates votes for a resolution of the given kind.
// It is pure: the same votes always give the same tally.
func Count(kind models.Kind, votes []models.Vote) models.Tally {
	t := models.Tally{Kind: kind}
	for _, v := range votes {
		t.Add(v.Choice)
	}
	return t
}

// Passes applies the voting type threshold. Abstentions are ignored.
func Passes(vt models.VotingType, t models.Tally) bool {
	cast := t.Yes + t.No
	switch vt {
	case models.VotingTwoThirds:
		return cast > 0 && 3*t.Yes >= 2*cast
	default:
		return t.Yes > t.No
	}
}

// Evaluate returns the outcome of a frozen tally.
func Evaluate(vt models.VotingType, t models.Tally) models.Outcome {
	if Passes(vt, t) {
		return models.OutcomePassed
	}
	return models.OutcomeFailed
}
