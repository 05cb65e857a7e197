// Package simulator computes simulated cancer-screening access per community
// for a set of policy toggles.
package simulator

import (
	"fmt"
	"strings"
)

type Community string

const (
	Urban       Community = "urban"
	Suburban    Community = "suburban"
	Underserved Community = "underserved"
)

// Communities lists every community in display order.
var Communities = []Community{Urban, Suburban, Underserved}

// Label returns the display name of the community.
func (c Community) Label() string {
	switch c {
	case Urban:
		return "Urban"
	case Suburban:
		return "Suburban"
	case Underserved:
		return "Underserved"
	}
	return string(c)
}

type Toggle string

const (
	ExpandCoverage Toggle = "expand-coverage"
	FreePrograms   Toggle = "free-programs"
	MobileClinics  Toggle = "mobile-clinics"
)

// Label returns the display name of the toggle.
func (t Toggle) Label() string {
	switch t {
	case ExpandCoverage:
		return "Expand insurance coverage"
	case FreePrograms:
		return "Free cancer screening programs"
	case MobileClinics:
		return "Mobile screening clinics"
	}
	return string(t)
}

// Description explains the toggle's effect in plain language.
func (t Toggle) Description() string {
	switch t {
	case ExpandCoverage:
		return "More people gain insurance that pays for cancer screening, increasing access in all communities."
	case FreePrograms:
		return "Public programs remove out-of-pocket costs, especially helping people in underserved communities."
	case MobileClinics:
		return "Mobile units bring screening to rural and low-access neighborhoods, strongly boosting underserved access."
	}
	return ""
}

// AllToggles lists every policy toggle in display order.
var AllToggles = []Toggle{ExpandCoverage, FreePrograms, MobileClinics}

// Toggles is the set of active policy levers. The zero value has every policy off.
type Toggles struct {
	ExpandCoverage bool `json:"expandCoverage"`
	FreePrograms   bool `json:"freePrograms"`
	MobileClinics  bool `json:"mobileClinics"`
}

// On reports whether toggle t is active.
func (t Toggles) On(toggle Toggle) bool {
	switch toggle {
	case ExpandCoverage:
		return t.ExpandCoverage
	case FreePrograms:
		return t.FreePrograms
	case MobileClinics:
		return t.MobileClinics
	}
	return false
}

// Any reports whether at least one policy is active.
func (t Toggles) Any() bool {
	return t.ExpandCoverage || t.FreePrograms || t.MobileClinics
}

// Active returns the active toggles in display order.
func (t Toggles) Active() []Toggle {
	var out []Toggle
	for _, toggle := range AllToggles {
		if t.On(toggle) {
			out = append(out, toggle)
		}
	}
	return out
}

// ParseToggles builds a Toggles value from toggle names. Each entry may hold
// several comma-separated names. Names are matched case-insensitively and
// underscores are accepted in place of dashes.
func ParseToggles(names []string) (Toggles, error) {
	var t Toggles
	for _, raw := range splitNames(names) {
		toggle, ok := lookupToggle(raw)
		if !ok {
			return Toggles{}, fmt.Errorf("simulator: unknown toggle %q", raw)
		}
		t.set(toggle)
	}
	return t, nil
}

// ParseTogglesLenient is ParseToggles that skips unknown names.
func ParseTogglesLenient(names []string) Toggles {
	var t Toggles
	for _, raw := range splitNames(names) {
		if toggle, ok := lookupToggle(raw); ok {
			t.set(toggle)
		}
	}
	return t
}

func (t *Toggles) set(toggle Toggle) {
	switch toggle {
	case ExpandCoverage:
		t.ExpandCoverage = true
	case FreePrograms:
		t.FreePrograms = true
	case MobileClinics:
		t.MobileClinics = true
	}
}

// lookupToggle normalizes raw. Blank names resolve to the empty toggle,
// which set ignores.
func lookupToggle(raw string) (Toggle, bool) {
	name := Toggle(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-"))
	if name == "" {
		return "", true
	}
	for _, t := range AllToggles {
		if t == name {
			return t, true
		}
	}
	return "", false
}

func splitNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.Split(n, ",")...)
	}
	return out
}
