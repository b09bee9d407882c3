package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kjannette/maichez-backend/internal/assistant"
	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/transcript"
)

var (
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 2)

	assistantStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	noteStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Italic(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	approvedBadge = badgeBase.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#10B981"))

	rejectedBadge = badgeBase.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#EF4444"))

	warningBadge = badgeBase.
		Foreground(lipgloss.Color("#1F2937")).
		Background(lipgloss.Color("#F59E0B"))

	ruleTypeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Width(9)
)

func renderHeader(validatorName string, ruleCount int) string {
	return headerStyle.Render(fmt.Sprintf("Maichez trade review  ·  validator: %s  ·  rules: %d", validatorName, ruleCount))
}

func renderAssistant(text string) string {
	return assistantStyle.Render("Assistant:") + " " + text
}

func renderNote(text string) string { return noteStyle.Render(text) }

func renderError(text string) string { return errorStyle.Render("! " + text) }

func badge(result conversation.ValidationResult) string {
	switch result {
	case conversation.Approved:
		return approvedBadge.Render("APPROVED")
	case conversation.Rejected:
		return rejectedBadge.Render("REJECTED")
	default:
		return warningBadge.Render("WARNING")
	}
}

// renderMessage shows structured verdicts as a badge plus explanation and
// anything else as plain assistant text.
func renderMessage(m assistant.MessageView) string {
	if m.Verdict == nil {
		if m.Role == conversation.RoleUser {
			return "You: " + m.Text
		}
		return renderAssistant(m.Text)
	}
	return badge(conversation.Classify(m.Text)) + " " + m.Verdict.Explanation
}

func renderRules(list []models.TradeRule) string {
	if len(list) == 0 {
		return renderNote("No rules configured.")
	}
	var b strings.Builder
	for i, r := range list {
		marker := " "
		if r.Required {
			marker = "*"
		}
		fmt.Fprintf(&b, "%2d.%s %s %s\n", i+1, marker, ruleTypeStyle.Render(string(r.Type)), r.Text)
	}
	b.WriteString(renderNote("* required"))
	return b.String()
}

// renderHistory prints archived messages oldest first. entries arrive newest first.
func renderHistory(entries []transcript.Entry) string {
	if len(entries) == 0 {
		return renderNote("No archived messages.")
	}
	var b strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		view := assistant.MessageView{Role: e.Role, Text: e.Text}
		if e.Role == conversation.RoleModel {
			if v, ok := conversation.DecodeDisplay(e.Text); ok {
				view.Verdict = &v
			}
		}
		fmt.Fprintf(&b, "%s %s\n", renderNote(e.Timestamp.Local().Format("2006-01-02 15:04")), renderMessage(view))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
