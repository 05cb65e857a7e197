// Package topic routes chat messages by keyword markers before any model call.
package topic

import "strings"

type Verdict string

const (
	// Medical messages ask for personal medical guidance and are deflected.
	Medical Verdict = "medical"
	// OnTopic messages are about cancer policy and may reach the model.
	OnTopic Verdict = "on_topic"
	// OffTopic messages match neither marker list and are declined.
	OffTopic Verdict = "off_topic"
)

// DefaultMedicalMarkers flag personal medical questions.
var DefaultMedicalMarkers = []string{
	"should i",
	"my doctor",
	"symptom",
	"diagnose",
	"diagnosis",
	"treat",
	"treatment",
	"screening result",
	"test result",
	"stage ",
	"what should i do",
	"ct scan",
	"mri",
	"chemotherapy",
	"radiation",
}

// DefaultPolicyMarkers flag cancer-policy questions.
var DefaultPolicyMarkers = []string{
	"policy",
	"insurance",
	"medicaid",
	"medicare",
	"coverage",
	"screening",
	"preventive care",
	"access to care",
	"underserved",
	"rural",
	"equity",
	"acs ",
	"acs can",
	"american cancer society",
}

// Classifier matches lowercased text against two substring lists.
// Medical markers always win over policy markers.
type Classifier struct {
	medical []string
	policy  []string
}

// NewClassifier normalizes the marker lists. Nil lists fall back to the defaults.
func NewClassifier(medical, policy []string) *Classifier {
	if medical == nil {
		medical = DefaultMedicalMarkers
	}
	if policy == nil {
		policy = DefaultPolicyMarkers
	}
	return &Classifier{medical: normalize(medical), policy: normalize(policy)}
}

// Default returns a classifier over the compiled-in marker lists.
func Default() *Classifier {
	return NewClassifier(nil, nil)
}

// Classify returns the routing verdict for a user message.
func (c *Classifier) Classify(text string) Verdict {
	switch {
	case c.IsMedical(text):
		return Medical
	case c.IsPolicy(text):
		return OnTopic
	}
	return OffTopic
}

// IsMedical reports whether text contains a medical marker.
func (c *Classifier) IsMedical(text string) bool {
	return containsAny(strings.ToLower(text), c.medical)
}

// IsPolicy reports whether text contains a policy marker.
func (c *Classifier) IsPolicy(text string) bool {
	return containsAny(strings.ToLower(text), c.policy)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// normalize lowercases markers and drops empty entries. Trailing spaces are
// significant ("stage ", "acs ") so only fully blank markers are dropped.
func normalize(markers []string) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if strings.TrimSpace(m) == "" {
			continue
		}
		out = append(out, strings.ToLower(m))
	}
	return out
}
