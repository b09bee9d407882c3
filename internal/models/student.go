package models

import "time"

type StudentTier string

const (
	TierFoundation   StudentTier = "foundation"
	TierProfessional StudentTier = "professional"
	TierElite        StudentTier = "elite"
)

// Student is a row of profiles as the admin portal sees it.
type Student struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Tier       StudentTier `json:"tier"`
	Status     string      `json:"status"`
	TradeCount int64       `json:"tradeCount"`
	CreatedAt  time.Time   `json:"joinedAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// StudentDetail is a student with their most recent journal entries.
type StudentDetail struct {
	Student
	Trades []JournalEntry `json:"trades"`
}
