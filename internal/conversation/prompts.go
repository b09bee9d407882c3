package conversation

import "strings"

// Placeholders substituted into the configurable prompts. Text around them
// is used as is.
const (
	DirectionPlaceholder = "{direction}"
	PairPlaceholder      = "{pair}"
)

// Prompts holds the assistant's fixed replies. PairPrompt may contain
// {direction} for the capitalised direction ("Buy"/"Sell"), DetailsPrompt
// may contain {pair}.
type Prompts struct {
	Greeting      string `yaml:"greeting"`
	Reprompt      string `yaml:"reprompt"`
	PairPrompt    string `yaml:"pair_prompt"`
	DetailsPrompt string `yaml:"details_prompt"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		Greeting: "Hello! I am your AI Risk Manager. Tell me about the trade you want to take. Is it a Buy or Sell?",
		Reprompt: "I didn't catch that. Are you looking to take a Buy or Sell position?",
		PairPrompt: "Great! You want to take a {direction} position. What currency pair or asset are you looking at? " +
			"(e.g., EURUSD, XAUUSD, BTCUSD)",
		DetailsPrompt: "Thanks! I see you're looking at {pair}. Now, please describe your trade setup. Include details like:\n" +
			"- Entry point\n" +
			"- Stop loss level\n" +
			"- Take profit level\n" +
			"- Why you're taking this trade\n" +
			"- Any chart patterns or indicators you're using\n\n" +
			"You can also upload a screenshot of your chart for visual analysis.",
	}
}

// Merge returns p with every empty field taken from the defaults.
func (p Prompts) Merge(defaults Prompts) Prompts {
	if strings.TrimSpace(p.Greeting) == "" {
		p.Greeting = defaults.Greeting
	}
	if strings.TrimSpace(p.Reprompt) == "" {
		p.Reprompt = defaults.Reprompt
	}
	if strings.TrimSpace(p.PairPrompt) == "" {
		p.PairPrompt = defaults.PairPrompt
	}
	if strings.TrimSpace(p.DetailsPrompt) == "" {
		p.DetailsPrompt = defaults.DetailsPrompt
	}
	return p
}

func (p Prompts) pairPrompt(d Direction) string {
	return strings.ReplaceAll(p.PairPrompt, DirectionPlaceholder, d.Title())
}

func (p Prompts) detailsPrompt(pair string) string {
	return strings.ReplaceAll(p.DetailsPrompt, PairPlaceholder, pair)
}

// Placeholder is the input hint shown for a state.
func Placeholder(s State) string {
	switch s {
	case StateInitial:
		return "Is it a Buy or Sell?"
	case StateAwaitingDirection:
		return "Which asset? (e.g., EURUSD, XAUUSD)"
	case StateAwaitingDetails:
		return "Describe your setup..."
	default:
		return "Continue the conversation..."
	}
}
