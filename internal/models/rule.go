package models

import "time"

type RuleType string

const (
	RuleBuy     RuleType = "buy"
	RuleSell    RuleType = "sell"
	RuleGeneral RuleType = "general"
)

type TradeRule struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Text        string    `json:"text"`
	Type        RuleType  `json:"type"`
	Required    bool      `json:"required"`
	OrderNumber int       `json:"orderNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RuleFingerprint changes whenever a user's rule list changes. Deletes move
// Count, inserts and updates move LastUpdate.
type RuleFingerprint struct {
	Count      int64
	LastUpdate *time.Time
}

func (f RuleFingerprint) Equal(o RuleFingerprint) bool {
	if f.Count != o.Count {
		return false
	}
	if f.LastUpdate == nil || o.LastUpdate == nil {
		return f.LastUpdate == nil && o.LastUpdate == nil
	}
	return f.LastUpdate.Equal(*o.LastUpdate)
}

// RuleTexts returns the rule texts in list order.
func RuleTexts(rules []TradeRule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Text)
	}
	return out
}
