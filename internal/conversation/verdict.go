package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ValidationResult string

const (
	Approved ValidationResult = "approved"
	Rejected ValidationResult = "rejected"
	Warning  ValidationResult = "warning"
)

// Verdict is the structured form a validator may answer with. Verdict is
// usually APPROVED, REJECTED or WARNING but is stored as given.
type Verdict struct {
	Verdict     string `json:"verdict"`
	Explanation string `json:"explanation"`
}

// Response is a validator reply. Exactly one of Structured, Raw or Text is
// meaningful, checked in that order.
type Response struct {
	Structured *Verdict
	Raw        any
	Text       string
}

func TextResponse(s string) Response { return Response{Text: s} }

func StructuredResponse(verdict, explanation string) Response {
	return Response{Structured: &Verdict{Verdict: verdict, Explanation: explanation}}
}

// EncodeResponse turns a reply into the text stored on the model message.
// Structured replies become compact JSON so DecodeDisplay can read them back.
func EncodeResponse(r Response) string {
	switch {
	case r.Structured != nil:
		b, err := json.Marshal(r.Structured)
		if err != nil {
			return r.Structured.Explanation
		}
		return string(b)
	case r.Raw != nil:
		if s, ok := r.Raw.(string); ok {
			return s
		}
		b, err := json.MarshalIndent(r.Raw, "", "  ")
		if err != nil {
			return fmt.Sprint(r.Raw)
		}
		return string(b)
	default:
		return r.Text
	}
}

// DecodeDisplay reports whether text is a stored structured verdict.
func DecodeDisplay(text string) (Verdict, bool) {
	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Verdict{}, false
	}
	if v.Verdict == "" || v.Explanation == "" {
		return Verdict{}, false
	}
	return v, true
}

// Classify looks for "approved" then "rejected" anywhere in text. It does not
// read the structured verdict, so the two can disagree.
func Classify(text string) ValidationResult {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "approved"):
		return Approved
	case strings.Contains(lower, "rejected"):
		return Rejected
	default:
		return Warning
	}
}
