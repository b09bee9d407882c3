package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC)

func TestStep_InitialBuySynonyms(t *testing.T) {
	for _, in := range []string{"buy", "I want to BUY", "going Long here", "LONG gold", "buying"} {
		next, eff := Step(NewSession(), in, t0, DefaultPrompts())
		assert.Equal(t, StateAwaitingDirection, next.State, in)
		assert.Equal(t, Buy, next.Context.Direction, in)
		assert.False(t, eff.Analyze, in)
		require.Len(t, next.Messages, 2, in)
		assert.Contains(t, next.Messages[1].Text, "Buy position")
	}
}

func TestStep_InitialSellSynonyms(t *testing.T) {
	for _, in := range []string{"sell", "Short EURUSD", "SELLING"} {
		next, _ := Step(NewSession(), in, t0, DefaultPrompts())
		assert.Equal(t, StateAwaitingDirection, next.State, in)
		assert.Equal(t, Sell, next.Context.Direction, in)
	}
}

func TestStep_InitialBothSynonymsPrefersBuy(t *testing.T) {
	next, _ := Step(NewSession(), "should I buy or sell?", t0, DefaultPrompts())
	assert.Equal(t, Buy, next.Context.Direction)
}

func TestStep_InitialUnrecognisedStays(t *testing.T) {
	for _, in := range []string{"hello", "EURUSD", "what do you think?"} {
		start := NewSession()
		next, eff := Step(start, in, t0, DefaultPrompts())
		assert.Equal(t, StateInitial, next.State, in)
		assert.Equal(t, TradeContext{}, next.Context, in)
		assert.False(t, eff.Analyze, in)
		require.Len(t, next.Messages, 2)
		assert.Equal(t, DefaultPrompts().Reprompt, next.Messages[1].Text)
	}
}

func TestStep_EmptyInputWithoutImageIsNoop(t *testing.T) {
	s := NewSession()
	next, eff := Step(s, "   ", t0, DefaultPrompts())
	assert.True(t, eff.Noop)
	assert.Empty(t, next.Messages)
	assert.Equal(t, StateInitial, next.State)
}

func TestStep_ImageOnlyIsRecorded(t *testing.T) {
	s := NewSession()
	s.State = StateAwaitingDetails
	s.Context = TradeContext{Direction: Sell, Pair: "XAUUSD"}
	s.Image = "data:image/png;base64,AAAA"

	next, eff := Step(s, "", t0, DefaultPrompts())
	require.True(t, eff.Analyze)
	require.Len(t, next.Messages, 1)
	assert.Equal(t, "", next.Messages[0].Text)
	assert.Equal(t, "data:image/png;base64,AAAA", eff.Request.Image)
}

func TestStep_PairIsTrimmedAndUnvalidated(t *testing.T) {
	s, _ := Step(NewSession(), "sell", t0, DefaultPrompts())
	next, eff := Step(s, "  not a real pair  ", t0, DefaultPrompts())
	assert.Equal(t, StateAwaitingDetails, next.State)
	assert.Equal(t, "not a real pair", next.Context.Pair)
	assert.Equal(t, Sell, next.Context.Direction)
	assert.False(t, eff.Analyze)
	assert.Contains(t, next.Messages[len(next.Messages)-1].Text, "looking at not a real pair")
}

func TestStep_FullScenario(t *testing.T) {
	p := DefaultPrompts()
	s := NewSession()

	s, eff := Step(s, "I want to buy", t0, p)
	require.False(t, eff.Analyze)
	s, eff = Step(s, "EURUSD", t0.Add(time.Second), p)
	require.False(t, eff.Analyze)
	s, eff = Step(s, "entry 1.1000 sl 1.0950 tp 1.1100", t0.Add(2*time.Second), p)
	require.True(t, eff.Analyze)

	assert.Equal(t, StateAnalysisComplete, s.State)
	assert.Equal(t, TradeContext{Direction: Buy, Pair: "EURUSD", Details: "entry 1.1000 sl 1.0950 tp 1.1100"}, s.Context)
	assert.Equal(t,
		"Trade Direction: buy\nAsset/Pair: EURUSD\nUser Details: entry 1.1000 sl 1.0950 tp 1.1100",
		eff.Request.TradeDetails)

	s = Complete(s, eff.Request, StructuredResponse("APPROVED", "All rules satisfied."), t0.Add(3*time.Second))

	require.Len(t, s.Messages, 6)
	roles := make([]Role, len(s.Messages))
	for i, m := range s.Messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []Role{RoleUser, RoleModel, RoleUser, RoleModel, RoleUser, RoleModel}, roles)
	assert.Equal(t, "I want to buy", s.Messages[0].Text)
	assert.Equal(t, "EURUSD", s.Messages[2].Text)
	assert.Equal(t, "entry 1.1000 sl 1.0950 tp 1.1100", s.Messages[4].Text)

	require.NotNil(t, s.Draft)
	assert.Equal(t, Approved, s.Draft.ValidationResult)
	assert.Equal(t, Buy, s.Draft.Type)
	assert.True(t, strings.HasPrefix(s.Draft.Notes, "AI Analysis Request: Trade Direction: buy"))
}

func TestStep_ContinuationKeepsPairAndDirection(t *testing.T) {
	s := Session{
		State:   StateAnalysisComplete,
		Context: TradeContext{Direction: Sell, Pair: "BTCUSD", Details: "first idea"},
		Draft:   &DraftEntry{Notes: "old"},
	}
	next, eff := Step(s, " moved my stop to 65000 ", t0, DefaultPrompts())
	require.True(t, eff.Analyze)
	assert.Equal(t, StateAnalysisComplete, next.State)
	assert.Equal(t, Sell, next.Context.Direction)
	assert.Equal(t, "BTCUSD", next.Context.Pair)
	assert.Equal(t, "moved my stop to 65000", next.Context.Details)
	assert.Nil(t, next.Draft, "a new analysis clears the previous draft")
}

func TestStep_DoesNotMutateInput(t *testing.T) {
	s, _ := Step(NewSession(), "buy", t0, DefaultPrompts())
	before := len(s.Messages)
	_, _ = Step(s, "EURUSD", t0, DefaultPrompts())
	_, _ = Step(s, "GBPUSD", t0, DefaultPrompts())
	assert.Len(t, s.Messages, before)
	assert.Equal(t, StateAwaitingDirection, s.State)
}

func TestStep_ClearsPreviousError(t *testing.T) {
	s := Session{State: StateAnalysisComplete, Error: "boom"}
	next, _ := Step(s, "try again", t0, DefaultPrompts())
	assert.Empty(t, next.Error)
}

func TestComplete_ClearsImage(t *testing.T) {
	s := Session{State: StateAnalysisComplete, Image: "data:image/png;base64,AAAA"}
	req := AnalysisRequest{TradeDetails: "x", Image: s.Image}
	next := Complete(s, req, TextResponse("looks fine"), t0)
	assert.Empty(t, next.Image)
	require.NotNil(t, next.Draft)
	assert.Equal(t, "data:image/png;base64,AAAA", next.Draft.ScreenshotURL)
	assert.Equal(t, Warning, next.Draft.ValidationResult)
}

func TestFail_ClearsImageAndSetsError(t *testing.T) {
	s := Session{State: StateAnalysisComplete, Image: "data:image/png;base64,AAAA"}
	next := Fail(s, "try later")
	assert.Empty(t, next.Image)
	assert.Equal(t, "try later", next.Error)
	assert.Empty(t, next.Messages)
	assert.Equal(t, StateAnalysisComplete, next.State)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "Is it a Buy or Sell?", Placeholder(StateInitial))
	assert.Equal(t, "Continue the conversation...", Placeholder(StateAnalysisComplete))
}

func TestPrompts_Merge(t *testing.T) {
	p := Prompts{Greeting: "Hi"}.Merge(DefaultPrompts())
	assert.Equal(t, "Hi", p.Greeting)
	assert.Equal(t, DefaultPrompts().Reprompt, p.Reprompt)
}

func TestStep_ImageOnlyFollowUpKeepsDetails(t *testing.T) {
	s := Session{
		State:   StateAnalysisComplete,
		Context: TradeContext{Direction: Buy, Pair: "EURUSD", Details: "breakout on H4"},
		Image:   "data:image/png;base64,AAAA",
	}
	next, eff := Step(s, "  ", t0, DefaultPrompts())
	require.True(t, eff.Analyze)
	assert.Equal(t, "breakout on H4", next.Context.Details)
	assert.Equal(t,
		"Trade Direction: buy\nAsset/Pair: EURUSD\nUser Details: breakout on H4",
		eff.Request.TradeDetails)
}

func TestPrompts_PlaceholdersAreOptional(t *testing.T) {
	p := Prompts{PairPrompt: "Which pair?", DetailsPrompt: "Describe the setup."}.Merge(DefaultPrompts())

	s, _ := Step(NewSession(), "buy", t0, p)
	assert.Equal(t, "Which pair?", s.Messages[1].Text)
	s, _ = Step(s, "EURUSD", t0, p)
	assert.Equal(t, "Describe the setup.", s.Messages[3].Text)
}

func TestPrompts_PercentSignsAreLiteral(t *testing.T) {
	p := Prompts{
		PairPrompt:    "100% sure you want to {direction}? Which pair?",
		DetailsPrompt: "Describe the {pair} setup (be 100% honest).",
	}.Merge(DefaultPrompts())

	s, _ := Step(NewSession(), "sell", t0, p)
	assert.Equal(t, "100% sure you want to Sell? Which pair?", s.Messages[1].Text)
	s, _ = Step(s, "EURUSD", t0, p)
	assert.Equal(t, "Describe the EURUSD setup (be 100% honest).", s.Messages[3].Text)
}
