package main

import (
	"testing"

	"github.com/kjannette/maichez-backend/internal/rules"
)

func TestAPIRuleCache(t *testing.T) {
	c := rules.NewCache(nil)
	if got := apiRuleCache("listen", c); got != nil {
		t.Fatalf("listen mode: expected no API cache, got %v", got)
	}
	for _, mode := range []string{"poll", "off", ""} {
		if got := apiRuleCache(mode, c); got == nil {
			t.Fatalf("%q mode: expected the rule cache", mode)
		}
	}
}
