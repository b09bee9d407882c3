package conversation

import (
	"slices"
	"strings"
	"time"
)

type State string

const (
	StateInitial           State = "initial"
	StateAwaitingDirection State = "awaiting_direction"
	StateAwaitingDetails   State = "awaiting_details"
	StateAnalysisComplete  State = "analysis_complete"
)

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Title returns "Buy" or "Sell".
func (d Direction) Title() string {
	switch d {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return string(d)
	}
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TradeContext accumulates one field per transition. Empty means not set.
type TradeContext struct {
	Direction Direction `json:"direction,omitempty"`
	Pair      string    `json:"pair,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Session is the whole per-conversation state. It is a value: Step and the
// completion functions return a new Session and never mutate their input.
type Session struct {
	State    State        `json:"state"`
	Context  TradeContext `json:"context"`
	Messages []Message    `json:"messages"`
	Image    string       `json:"image,omitempty"`
	Draft    *DraftEntry  `json:"draft,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func NewSession() Session {
	return Session{State: StateInitial}
}

// AnalysisRequest is what the validator is asked about after a step.
type AnalysisRequest struct {
	TradeDetails string
	Input        string
	Image        string
}

// Effect tells the caller what to do after Step. Noop means the input was
// ignored (nothing typed and no image attached).
type Effect struct {
	Noop    bool
	Analyze bool
	Request AnalysisRequest
}

// Step applies one user input to the session.
func Step(s Session, input string, now time.Time, p Prompts) (Session, Effect) {
	if strings.TrimSpace(input) == "" && s.Image == "" {
		return s, Effect{Noop: true}
	}

	next := s
	next.Error = ""
	next.Messages = appendMessage(s.Messages, Message{Role: RoleUser, Text: input, Timestamp: now})
	trimmed := strings.TrimSpace(input)

	switch s.State {
	case StateInitial:
		dir, ok := detectDirection(input)
		if !ok {
			next.Messages = appendMessage(next.Messages, Message{Role: RoleModel, Text: p.Reprompt, Timestamp: now})
			return next, Effect{}
		}
		next.Context = TradeContext{Direction: dir}
		next.State = StateAwaitingDirection
		next.Messages = appendMessage(next.Messages, Message{Role: RoleModel, Text: p.pairPrompt(dir), Timestamp: now})
		return next, Effect{}

	case StateAwaitingDirection:
		next.Context.Pair = trimmed
		next.State = StateAwaitingDetails
		next.Messages = appendMessage(next.Messages, Message{Role: RoleModel, Text: p.detailsPrompt(trimmed), Timestamp: now})
		return next, Effect{}

	default:
		// awaiting details or a continuation: pair and direction stay,
		// details follow the latest typed input. An image sent on its own
		// keeps the earlier details.
		if trimmed != "" {
			next.Context.Details = trimmed
		}
		next.State = StateAnalysisComplete
	}

	next.Draft = nil
	return next, Effect{
		Analyze: true,
		Request: AnalysisRequest{
			TradeDetails: TradeDetails(next.Context, input),
			Input:        input,
			Image:        next.Image,
		},
	}
}

// Complete records the validator's response for req: appends the model
// message, builds the draft entry and clears the attached image.
func Complete(s Session, req AnalysisRequest, resp Response, now time.Time) Session {
	text := EncodeResponse(resp)

	next := s
	next.Messages = appendMessage(s.Messages, Message{Role: RoleModel, Text: text, Timestamp: now})
	draft := BuildDraft(s.Context, req, Classify(text), now)
	next.Draft = &draft
	next.Image = ""
	return next
}

// Fail records a failed validator call. No model message is added.
func Fail(s Session, msg string) Session {
	next := s
	next.Error = msg
	next.Image = ""
	return next
}

func detectDirection(input string) (Direction, bool) {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "buy") || strings.Contains(lower, "long") {
		return Buy, true
	}
	if strings.Contains(lower, "sell") || strings.Contains(lower, "short") {
		return Sell, true
	}
	return "", false
}

// appendMessage never writes into the backing array of msgs, so earlier
// Session values keep their own history.
func appendMessage(msgs []Message, m Message) []Message {
	return append(slices.Clip(msgs), m)
}
