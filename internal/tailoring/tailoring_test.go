package tailoring

import (
	"reflect"
	"testing"
)

func barkBase(rules ...any) Values {
	base := Values{
		"endpoint": "https://api.day.app/KEY",
		"group":    "default",
		"sound":    "bell",
		"level":    "active",
	}
	if len(rules) > 0 {
		base[Key] = rules
	}
	return base
}

func TestResolveWithoutTailoringReturnsBase(t *testing.T) {
	t.Parallel()

	base := barkBase()
	got := Resolve(base, "anything")
	if !reflect.DeepEqual(got, base) {
		t.Fatalf("expected base config, got %v", got)
	}
}

func TestResolveNoMatchReturnsBaseExactly(t *testing.T) {
	t.Parallel()

	base := barkBase(map[string]any{"title": "other", "group": "x"})
	got := Resolve(base, "Build OK")
	if !reflect.DeepEqual(got, base) {
		t.Fatalf("expected base config unchanged, got %v", got)
	}
}

func TestResolveFirstMatchingRuleWins(t *testing.T) {
	t.Parallel()

	base := barkBase(
		map[string]any{"title": "Deploy", "group": "deploys"},
		map[string]any{"title": "Build OK", "group": "builds", "sound": nil},
		map[string]any{"title": "Build OK", "group": "ignored", "icon": "ignored"},
	)

	got := Resolve(base, "Build OK")

	if got["group"] != "builds" {
		t.Fatalf("expected group from the second rule, got %v", got["group"])
	}
	if got["sound"] != "bell" {
		t.Fatalf("null override must keep the base value, got %v", got["sound"])
	}
	if _, ok := got["icon"]; ok {
		t.Fatalf("later rules must not apply, got icon %v", got["icon"])
	}
	if got["level"] != "active" || got["endpoint"] != "https://api.day.app/KEY" {
		t.Fatalf("fields absent from the rule must keep base values: %v", got)
	}
	if _, ok := got["title"]; ok {
		t.Fatalf("match key must not leak into the effective config")
	}
	if base["group"] != "default" {
		t.Fatalf("base config was mutated")
	}
}

func TestResolveMatchesListMembership(t *testing.T) {
	t.Parallel()

	base := barkBase(map[string]any{"title": []any{"Alert", "Alarm"}, "level": "timeSensitive"})

	if got := Resolve(base, "Alarm"); got["level"] != "timeSensitive" {
		t.Fatalf("expected list membership match, got %v", got["level"])
	}
	if got := Resolve(base, "Alar"); got["level"] != "active" {
		t.Fatalf("membership must use exact equality, got %v", got["level"])
	}
	if got := Resolve(base, "Alert and more"); got["level"] != "active" {
		t.Fatalf("membership must not match substrings, got %v", got["level"])
	}
}

func TestResolveMatchKeyAliasAndScalars(t *testing.T) {
	t.Parallel()

	base := barkBase(
		map[string]any{"match": "Nightly", "group": "nightly"},
		Values{"title": 2024, "group": "yearly"},
	)

	if got := Resolve(base, "Nightly"); got["group"] != "nightly" {
		t.Fatalf("expected match alias to work, got %v", got["group"])
	}
	if got := Resolve(base, "2024"); got["group"] != "yearly" {
		t.Fatalf("expected numeric title to match its string form, got %v", got["group"])
	}
}

func TestResolveSkipsMalformedRules(t *testing.T) {
	t.Parallel()

	base := barkBase("not a rule", map[string]any{"group": "no title"}, map[string]any{"title": "T", "group": "ok"})
	if got := Resolve(base, "T"); got["group"] != "ok" {
		t.Fatalf("expected malformed rules to be skipped, got %v", got["group"])
	}
}

func TestDecodeIntoDeclaredSchema(t *testing.T) {
	t.Parallel()

	var out struct {
		Token   string `yaml:"token"`
		ChatID  Scalar `yaml:"chatid"`
		Archive Scalar `yaml:"isArchive"`
		Port    int    `yaml:"port"`
		Missing Scalar `yaml:"missing"`
	}
	values := Values{"token": "T", "chatid": -100123, "isArchive": true, "port": 465, "unknown": "x"}

	if err := values.Decode(&out); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if out.Token != "T" || out.ChatID != "-100123" || out.Archive != "true" || out.Port != 465 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
	if out.Missing != "" {
		t.Fatalf("expected absent field to stay empty, got %q", out.Missing)
	}
}

func TestDecodeRejectsWrongShape(t *testing.T) {
	t.Parallel()

	var out struct {
		ChatID Scalar `yaml:"chatid"`
	}
	if err := (Values{"chatid": []any{1, 2}}).Decode(&out); err == nil {
		t.Fatalf("expected error for list in scalar field")
	}
}
