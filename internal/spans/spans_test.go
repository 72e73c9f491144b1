package spans

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/postguard/internal/risk"
)

func assertSortedNonOverlapping(t *testing.T, got []Span) {
	t.Helper()
	for i := 0; i+1 < len(got); i++ {
		if got[i].End > got[i+1].Start {
			t.Fatalf("spans %d and %d overlap: %+v %+v", i, i+1, got[i], got[i+1])
		}
	}
}

func TestResolve_AddressAndSSN(t *testing.T) {
	text := "I live at 123 Main St and my SSN is 123-45-6789"
	elements := []risk.Element{
		{Text: "123 Main St", Category: risk.CategoryLocation},
		{Text: "123-45-6789", Category: risk.CategoryPersonalInfo},
	}

	got := Resolve(text, elements)
	require.Len(t, got, 2)
	assertSortedNonOverlapping(t, got)

	assert.Equal(t, "123 Main St", got[0].Text)
	assert.Equal(t, strings.Index(text, "123 Main St"), got[0].Start)
	assert.Equal(t, got[0].Start+len("123 Main St"), got[0].End)
	assert.Equal(t, risk.CategoryLocation, got[0].Category)

	assert.Equal(t, "123-45-6789", got[1].Text)
	assert.Equal(t, strings.Index(text, "123-45-6789"), got[1].Start)
	assert.Equal(t, risk.CategoryPersonalInfo, got[1].Category)
}

func TestResolve_OverlapEarliestStartWins(t *testing.T) {
	text := "Flying to New York City tomorrow"
	elements := []risk.Element{
		{Text: "York City", Category: risk.CategoryLocation, Explanation: "city"},
		{Text: "New York", Category: risk.CategoryLocation, Explanation: "state"},
	}

	got := Resolve(text, elements)
	require.Len(t, got, 1)
	assert.Equal(t, "New York", got[0].Text)
	assert.Equal(t, "state", got[0].Explanation)
}

func TestResolve_SameStartKeepsElementOrder(t *testing.T) {
	text := "New York City"

	got := Resolve(text, []risk.Element{{Text: "New York"}, {Text: "New York City"}})
	require.Len(t, got, 1)
	assert.Equal(t, "New York", got[0].Text, "no longest-match preference")

	got = Resolve(text, []risk.Element{{Text: "New York City"}, {Text: "New York"}})
	require.Len(t, got, 1)
	assert.Equal(t, "New York City", got[0].Text)
}

func TestResolve_NoSeverityPreference(t *testing.T) {
	text := "account 4111 1111"
	elements := []risk.Element{
		{Text: "account 4111", Severity: risk.LevelLow},
		{Text: "4111 1111", Severity: risk.LevelHigh},
	}
	got := Resolve(text, elements)
	require.Len(t, got, 1)
	assert.Equal(t, risk.LevelLow, got[0].Severity)
}

func TestResolve_EveryOccurrenceCaseInsensitive(t *testing.T) {
	text := "Call Bob. bob said BOB is home."
	got := Resolve(text, []risk.Element{{Text: "bob"}})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Bob", "bob", "BOB"}, []string{got[0].Text, got[1].Text, got[2].Text})
	assertSortedNonOverlapping(t, got)
}

func TestResolve_RepeatedPatternDoesNotSelfOverlap(t *testing.T) {
	got := Resolve("aaaa", []risk.Element{{Text: "aa"}})
	require.Len(t, got, 2)
	assert.Equal(t, Span{Start: 0, End: 2, Text: "aa"}, got[0])
	assert.Equal(t, Span{Start: 2, End: 4, Text: "aa"}, got[1])
}

func TestResolve_Metacharacters(t *testing.T) {
	text := "price is $5.00 (approx) [maybe] a+b*c?"
	elements := []risk.Element{
		{Text: "$5.00"},
		{Text: "(approx)"},
		{Text: "[maybe]"},
		{Text: "a+b*c?"},
		{Text: "."},
	}
	got := Resolve(text, elements)
	var texts []string
	for _, s := range got {
		texts = append(texts, s.Text)
	}
	assert.Equal(t, []string{"$5.00", "(approx)", "[maybe]", "a+b*c?"}, texts)
}

func TestResolve_RuneOffsets(t *testing.T) {
	text := "café à Zürich"
	got := Resolve(text, []risk.Element{{Text: "zürich"}})
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Start)
	assert.Equal(t, 13, got[0].End)
	assert.Equal(t, "Zürich", got[0].Text)
}

func TestResolve_SkipsEmptyAndMissing(t *testing.T) {
	assert.Empty(t, Resolve("", []risk.Element{{Text: "x"}}))
	assert.Empty(t, Resolve("hello", nil))
	assert.Empty(t, Resolve("hello", []risk.Element{{Text: ""}, {Text: "absent"}}))
	assert.Empty(t, Resolve("hi", []risk.Element{{Text: "longer than text"}}))
}

func TestResolve_CarriesMetadata(t *testing.T) {
	e := risk.Element{
		Text:         "diabetes",
		Category:     risk.CategoryMedical,
		Explanation:  "Medical diagnosis",
		Alternatives: []string{"a health condition"},
		Severity:     risk.LevelHigh,
	}
	got := Resolve("I was diagnosed with Diabetes", []risk.Element{e})
	require.Len(t, got, 1)
	assert.Equal(t, e.Category, got[0].Category)
	assert.Equal(t, e.Explanation, got[0].Explanation)
	assert.Equal(t, e.Alternatives, got[0].Alternatives)
	assert.Equal(t, e.Severity, got[0].Severity)
	assert.Equal(t, "Diabetes", got[0].Text)
}

func TestMatcher_FindAll(t *testing.T) {
	m := NewMatcher("AB")
	assert.Equal(t, []Range{{0, 2}, {3, 5}}, m.FindAll(foldRunes("ab-aB")))
	assert.Nil(t, NewMatcher("").FindAll(foldRunes("abc")))
	assert.True(t, NewMatcher("").Empty())
}

func TestSegments(t *testing.T) {
	text := "my ssn is 123-45-6789 ok"
	got := Segments(text, Resolve(text, []risk.Element{{Text: "123-45-6789"}}))
	require.Len(t, got, 3)
	assert.Equal(t, "my ssn is ", got[0].Text)
	assert.Nil(t, got[0].Span)
	assert.Equal(t, "123-45-6789", got[1].Text)
	require.NotNil(t, got[1].Span)
	assert.Equal(t, " ok", got[2].Text)

	var b strings.Builder
	for _, s := range got {
		b.WriteString(s.Text)
	}
	assert.Equal(t, text, b.String())
}

func TestSegments_NoSpans(t *testing.T) {
	got := Segments("plain", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "plain", got[0].Text)
	assert.Empty(t, Segments("", nil))
}
