package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kjannette/maichez-backend/internal/conversation"
)

// Prompts is the optional prompts file. Empty fields keep the built-in text.
//
//	greeting: "..."
//	reprompt: "..."
//	pair_prompt: "... {direction} ..."
//	details_prompt: "... {pair} ..."
//	system_prompt: |
//	  You are a risk manager...
type Prompts struct {
	Assistant    conversation.Prompts `yaml:",inline"`
	SystemPrompt string               `yaml:"system_prompt"`
}

// LoadPrompts reads path and fills missing assistant texts with defaults.
// An empty path returns the defaults and an empty system prompt.
func LoadPrompts(path string) (Prompts, error) {
	p := Prompts{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Prompts{}, fmt.Errorf("reading prompts file: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Prompts{}, fmt.Errorf("parsing prompts file %s: %w", path, err)
		}
	}
	p.Assistant = p.Assistant.Merge(conversation.DefaultPrompts())
	return p, nil
}
