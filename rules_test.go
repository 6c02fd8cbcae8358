// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"errors"
	"testing"

	"github.com/woozymasta/pathrules"
)

func includeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}

	return rules
}

func TestRuleMatcherMatch(t *testing.T) {
	t.Parallel()

	matcher, err := newRuleMatcher(includeRules(
		"*.png",
		"sounds/",
		"/assembly/ui/**/*.wav",
	), pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{name: "extension rule", path: `assembly\images\a.png`, want: true},
		{name: "dir-only rule", path: "assembly/sounds/a.bin", want: true},
		{name: "anchored root match", path: "assembly/ui/hud/a.wav", want: true},
		{name: "anchored root miss", path: "x/assembly/ui/hud/a.wav", want: false},
		{name: "no match", path: "assembly/templates/a.entitytemplate", want: false},
		{name: "empty", path: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := matcher.Match(tc.path)
			if got != tc.want {
				t.Fatalf("Match(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestRuleMatcherIncludeExcludeRules(t *testing.T) {
	t.Parallel()

	matcher, err := newRuleMatcher([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "assembly/**"},
		{Action: pathrules.ActionExclude, Pattern: "assembly/tmp/**"},
		{Action: pathrules.ActionInclude, Pattern: "assembly/tmp/keep/**"},
	}, pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if !matcher.Match("assembly/main.png") {
		t.Fatal("assembly/main.png must be included by rules")
	}

	if matcher.Match("assembly/tmp/a.png") {
		t.Fatal("assembly/tmp/a.png must be excluded by rules")
	}

	if !matcher.Match("ASSEMBLY/TMP/keep/a.png") {
		t.Fatal("ASSEMBLY/TMP/keep/a.png must be re-included by rules")
	}

	if matcher.Match("chunk0") {
		t.Fatal("unmatched path must be excluded when include rules exist")
	}
}

func TestRuleMatcherExcludeOnlyIncludesRest(t *testing.T) {
	t.Parallel()

	matcher, err := newRuleMatcher([]pathrules.Rule{
		{Action: pathrules.ActionExclude, Pattern: "dlc*"},
	}, pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if matcher.Match("dlc3") {
		t.Fatal("dlc3 must be excluded")
	}

	if !matcher.Match("chunk0") {
		t.Fatal("chunk0 must be included by default")
	}
}

func TestRuleMatcherNilMatchesEverything(t *testing.T) {
	t.Parallel()

	matcher, err := newRuleMatcher([]pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "  "}}, pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if matcher != nil {
		t.Fatal("expected nil matcher for blank rules")
	}

	if !matcher.Match("anything/at/all") {
		t.Fatal("nil matcher must include every path")
	}
}

func TestRuleMatcherInvalidRule(t *testing.T) {
	t.Parallel()

	_, err := newRuleMatcher([]pathrules.Rule{
		{
			Action:  pathrules.ActionUnknown,
			Pattern: "*.png",
		},
	}, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionExclude,
	})
	if !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("expected ErrInvalidRules, got %v", err)
	}
}

func TestDefaultMatcherOptions(t *testing.T) {
	t.Parallel()

	got := defaultMatcherOptions(includeRules("*.png"), pathrules.MatcherOptions{})
	if !got.CaseInsensitive || got.DefaultAction != pathrules.ActionExclude {
		t.Fatalf("include rules: got %+v", got)
	}

	got = defaultMatcherOptions([]pathrules.Rule{{Action: pathrules.ActionExclude, Pattern: "*.png"}}, pathrules.MatcherOptions{})
	if got.DefaultAction != pathrules.ActionInclude {
		t.Fatalf("exclude rules: got %+v", got)
	}

	got = defaultMatcherOptions(includeRules("*.png"), pathrules.MatcherOptions{DefaultAction: pathrules.ActionInclude})
	if got.CaseInsensitive || got.DefaultAction != pathrules.ActionInclude {
		t.Fatalf("explicit options: got %+v", got)
	}
}
