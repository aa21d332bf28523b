// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"Pending", StatusPending, true},
		{"active", StatusActive, true},
		{"In_Progress", StatusActive, true},
		{"in-progress", StatusActive, true},
		{" COMPLETED ", StatusCompleted, true},
		{"Passed", StatusPassed, true},
		{"rejected", StatusRejected, true},
		{"Maybe", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusPassed, StatusRejected} {
		if !s.Terminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusActive} {
		if s.Terminal() {
			t.Errorf("Expected %s not to be terminal", s)
		}
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		kind Kind
		raw  string
		want Choice
		ok   bool
	}{
		{KindResolution, "yes", ChoiceYes, true},
		{KindResolution, "NO", ChoiceNo, true},
		{KindResolution, "abstain", ChoiceAbstain, true},
		{KindResolution, "for", "", false},
		{KindDocument, "For", ChoiceYes, true},
		{KindDocument, "against", ChoiceNo, true},
		{KindDocument, "abstain", ChoiceAbstain, true},
		{KindDocument, "yes", "", false},
		{KindDocument, "", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.raw, func(t *testing.T) {
			got, ok := ParseChoice(tt.kind, tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseChoice(%s, %q) = %q, %v; want %q, %v", tt.kind, tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestChoiceLabel(t *testing.T) {
	if got := ChoiceYes.Label(KindDocument); got != "for" {
		t.Errorf("Expected for, got %s", got)
	}
	if got := ChoiceNo.Label(KindDocument); got != "against" {
		t.Errorf("Expected against, got %s", got)
	}
	if got := ChoiceAbstain.Label(KindDocument); got != "abstain" {
		t.Errorf("Expected abstain, got %s", got)
	}
	if got := ChoiceNo.Label(KindResolution); got != "no" {
		t.Errorf("Expected no, got %s", got)
	}
}

func TestParseVotingType(t *testing.T) {
	for _, raw := range []string{"simple-majority", "Simple_Majority", "simple majority"} {
		if got, ok := ParseVotingType(raw); !ok || got != VotingSimpleMajority {
			t.Errorf("ParseVotingType(%q) = %q, %v", raw, got, ok)
		}
	}
	if got, ok := ParseVotingType("TWO_THIRDS"); !ok || got != VotingTwoThirds {
		t.Errorf("Expected two-thirds, got %q, %v", got, ok)
	}
	if _, ok := ParseVotingType("unanimous"); ok {
		t.Error("Expected unanimous to be refused")
	}
}

func TestParseKindAndRole(t *testing.T) {
	if k, ok := ParseKind(""); !ok || k != KindResolution {
		t.Errorf("Expected empty kind to default to resolution, got %q", k)
	}
	if _, ok := ParseKind("memo"); ok {
		t.Error("Expected memo to be refused")
	}
	if r, ok := ParseRole("Chair"); !ok || r != RoleChair {
		t.Errorf("Expected chair, got %q", r)
	}
	if _, ok := ParseRole("observer"); ok {
		t.Error("Expected observer to be refused")
	}
}

func TestTallyAdd(t *testing.T) {
	var tally Tally
	for _, c := range []Choice{ChoiceYes, ChoiceYes, ChoiceNo, ChoiceAbstain, "bogus"} {
		tally.Add(c)
	}
	if tally.Yes != 2 || tally.No != 1 || tally.Abstain != 1 || tally.Total != 4 {
		t.Errorf("Unexpected tally %+v", tally)
	}
}

func TestTallyPercentages(t *testing.T) {
	empty := Tally{Kind: KindResolution}.Percentages()
	for label, v := range empty {
		if v != 0 {
			t.Errorf("Expected 0 for %s on an empty tally, got %v", label, v)
		}
	}
	if len(empty) != 3 {
		t.Errorf("Expected 3 labels, got %v", empty)
	}

	pct := Tally{Kind: KindDocument, Yes: 1, No: 1, Abstain: 1, Total: 3}.Percentages()
	if pct["for"] != 33.3 || pct["against"] != 33.3 || pct["abstain"] != 33.3 {
		t.Errorf("Unexpected percentages %v", pct)
	}
}

func TestTallyJSON(t *testing.T) {
	tests := []struct {
		name  string
		tally Tally
		want  string
	}{
		{"resolution", Tally{Kind: KindResolution, Yes: 2, No: 1, Total: 3}, `{"abstain":0,"no":1,"total":3,"yes":2}`},
		{"document", Tally{Kind: KindDocument, Yes: 1, Abstain: 1, Total: 2}, `{"abstain":1,"against":0,"for":1,"total":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.tally)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, data)
			}

			var back Tally
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if back != tt.tally {
				t.Errorf("Expected %+v, got %+v", tt.tally, back)
			}
		})
	}
}

func TestVoteJSONUsesLabel(t *testing.T) {
	data, err := json.Marshal(Vote{ID: "v1", Choice: ChoiceYes, Label: "for"})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["vote"] != "for" {
		t.Errorf("Expected vote label for, got %v", raw["vote"])
	}
	if _, ok := raw["Choice"]; ok {
		t.Error("Expected the canonical choice to stay internal")
	}
}
