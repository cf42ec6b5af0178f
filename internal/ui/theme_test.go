package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	for _, name := range names {
		if _, ok := themes[name]; !ok {
			t.Fatalf("ThemeNames() contains %q with no theme", name)
		}
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme(t *testing.T) {
	slate := GetTheme("Slate")
	if slate.Name != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", slate.Name)
	}
	unknown := GetTheme("Dracula")
	if unknown.Name != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox (fallback)", unknown.Name)
	}
}

func TestThemesCoverConnectionStates(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, state := range []string{"live", "connecting", "offline"} {
			if th.StatusColors[state] == "" {
				t.Fatalf("theme %s has no color for %q", name, state)
			}
		}
	}
}
