package validator

import (
	"fmt"
	"strings"
)

const DefaultSystemPrompt = `You are a strict trading risk manager reviewing a student's trade before it is placed.
Check the trade against each of the student's rules and, when a chart screenshot is attached, against what the chart shows.
Reply with a JSON object of the form {"verdict": "APPROVED" | "REJECTED" | "WARNING", "explanation": "..."}.
Use REJECTED when any required rule is broken, WARNING when information is missing or the setup is doubtful, and APPROVED only when every rule is satisfied.
Keep the explanation short and name the rules that decided the verdict.`

// userPrompt renders the trade block followed by the numbered rules.
func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Trade to review:\n")
	b.WriteString(req.TradeDetails)
	b.WriteString("\n\nStudent rules:\n")
	if len(req.Rules) == 0 {
		b.WriteString("No rules configured.\n")
	}
	for i, r := range req.Rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	if req.ImageDataURL != "" {
		b.WriteString("\nA chart screenshot is attached.\n")
	}
	return b.String()
}
