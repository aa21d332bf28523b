// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"math"
)

// Tally is derived from the vote ledger and never stored on its own.
// Total is always Yes + No + Abstain.
type Tally struct {
	Kind    Kind
	Yes     int
	No      int
	Abstain int
	Total   int
}

// Add counts one vote.
func (t *Tally) Add(c Choice) {
	switch c {
	case ChoiceYes:
		t.Yes++
	case ChoiceNo:
		t.No++
	case ChoiceAbstain:
		t.Abstain++
	default:
		return
	}
	t.Total++
}

// Percentages is keyed by the kind's labels and rounded to one decimal.
// All values are zero when nothing has been cast.
func (t Tally) Percentages() map[string]float64 {
	pct := func(n int) float64 {
		if t.Total == 0 {
			return 0
		}
		return math.Round(float64(n)*1000/float64(t.Total)) / 10
	}
	return map[string]float64{
		ChoiceYes.Label(t.Kind):     pct(t.Yes),
		ChoiceNo.Label(t.Kind):      pct(t.No),
		ChoiceAbstain.Label(t.Kind): pct(t.Abstain),
	}
}

func (t Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int{
		ChoiceYes.Label(t.Kind):     t.Yes,
		ChoiceNo.Label(t.Kind):      t.No,
		ChoiceAbstain.Label(t.Kind): t.Abstain,
		"total":                     t.Total,
	})
}

func (t *Tally) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tally{Kind: KindResolution, Abstain: raw["abstain"], Total: raw["total"]}
	if _, ok := raw["for"]; ok {
		t.Kind = KindDocument
		t.Yes, t.No = raw["for"], raw["against"]
		return nil
	}
	t.Yes, t.No = raw["yes"], raw["no"]
	return nil
}
