package conversation

import (
	"fmt"
	"strings"
	"time"
)

const notSpecified = "Not specified"

// DraftEntry is an unsaved trade-log record produced after an analysis.
type DraftEntry struct {
	Notes            string           `json:"notes"`
	ValidationResult ValidationResult `json:"validationResult"`
	Type             Direction        `json:"type"`
	ScreenshotURL    string           `json:"screenshotUrl,omitempty"`
	Date             time.Time        `json:"date"`
}

// TradeDetails is the text block sent to the validator and kept in the
// draft notes. input stands in for the details when none were captured.
func TradeDetails(c TradeContext, input string) string {
	dir := notSpecified
	if c.Direction != "" {
		dir = string(c.Direction)
	}
	pair := notSpecified
	if c.Pair != "" {
		pair = c.Pair
	}
	details := c.Details
	if details == "" {
		details = input
	}
	return fmt.Sprintf("Trade Direction: %s\nAsset/Pair: %s\nUser Details: %s", dir, pair, details)
}

func BuildDraft(c TradeContext, req AnalysisRequest, result ValidationResult, now time.Time) DraftEntry {
	typ := c.Direction
	if typ == "" {
		typ = Buy
		if strings.Contains(strings.ToLower(req.Input), "sell") {
			typ = Sell
		}
	}
	return DraftEntry{
		Notes:            "AI Analysis Request: " + req.TradeDetails,
		ValidationResult: result,
		Type:             typ,
		ScreenshotURL:    req.Image,
		Date:             now.UTC(),
	}
}
