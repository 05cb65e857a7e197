package topic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Medical(t *testing.T) {
	c := Default()
	for _, msg := range []string{
		"Should I get a mammogram?",
		"My doctor said my insurance won't cover it",
		"What does stage 2 mean?",
		"Is chemotherapy covered by Medicaid?",
		"I had an MRI last week",
		"what are the symptoms of colon cancer",
	} {
		require.Equal(t, Medical, c.Classify(msg), msg)
	}
}

func TestClassify_OnTopic(t *testing.T) {
	c := Default()
	for _, msg := range []string{
		"Why does insurance affect cancer screening?",
		"How do policies help underserved communities?",
		"What does ACS CAN advocate for?",
		"How does Medicare pay for preventive care?",
		"What about rural hospitals?",
	} {
		require.Equal(t, OnTopic, c.Classify(msg), msg)
	}
}

func TestClassify_OffTopic(t *testing.T) {
	c := Default()
	for _, msg := range []string{"what's the weather", "tell me a joke", "Who won the game?"} {
		require.Equal(t, OffTopic, c.Classify(msg), msg)
	}
}

func TestClassify_MarkerSpacingMatters(t *testing.T) {
	c := Default()
	// "stage " needs a trailing space, "backstage" alone does not match.
	require.Equal(t, OffTopic, c.Classify("backstage"))
	// "acs " requires the trailing space.
	require.Equal(t, OffTopic, c.Classify("tacs"))
	require.Equal(t, OnTopic, c.Classify("what is acs about"))
}

func TestNewClassifier_CustomMarkers(t *testing.T) {
	c := NewClassifier([]string{"  ", "Prescription"}, []string{"Tobacco Tax"})
	require.Equal(t, Medical, c.Classify("Can I get a prescription?"))
	require.Equal(t, OnTopic, c.Classify("How does a tobacco tax work?"))
	require.Equal(t, OffTopic, c.Classify("insurance"))
	require.True(t, c.IsMedical("PRESCRIPTION"))
	require.True(t, c.IsPolicy("tobacco tax"))
}

func TestNewClassifier_EmptyListsMatchNothing(t *testing.T) {
	c := NewClassifier([]string{}, []string{})
	require.Equal(t, OffTopic, c.Classify("my doctor wants insurance"))
}
