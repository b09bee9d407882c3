package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRuleFingerprintEqual(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Second)

	cases := []struct {
		a, b RuleFingerprint
		want bool
	}{
		{RuleFingerprint{}, RuleFingerprint{}, true},
		{RuleFingerprint{Count: 1, LastUpdate: &now}, RuleFingerprint{Count: 1, LastUpdate: &now}, true},
		{RuleFingerprint{Count: 1, LastUpdate: &now}, RuleFingerprint{Count: 1, LastUpdate: &later}, false},
		{RuleFingerprint{Count: 2, LastUpdate: &now}, RuleFingerprint{Count: 1, LastUpdate: &now}, false},
		{RuleFingerprint{Count: 0}, RuleFingerprint{Count: 0, LastUpdate: &now}, false},
	}
	for i, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Errorf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
}

func TestComputeWinRate(t *testing.T) {
	s := JournalStats{Wins: 2, Losses: 1}
	s.ComputeWinRate()
	if !s.WinRate.Equal(decimal.RequireFromString("66.67")) {
		t.Fatalf("win rate: got %s", s.WinRate)
	}

	s = JournalStats{}
	s.ComputeWinRate()
	if !s.WinRate.IsZero() {
		t.Fatalf("expected zero win rate, got %s", s.WinRate)
	}
}

func TestRuleTexts(t *testing.T) {
	got := RuleTexts([]TradeRule{{Text: "a"}, {Text: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected texts: %v", got)
	}
	if RuleTexts(nil) == nil {
		t.Fatal("expected empty, non-nil slice")
	}
}
