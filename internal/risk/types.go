package risk

import (
	"slices"
	"strings"
)

// Level grades both the overall analysis and individual elements.
type Level string

const (
	LevelUnknown Level = "UNKNOWN"
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
)

// ParseLevel maps a case-insensitive level name to a Level. Anything
// unrecognised becomes LevelUnknown.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelLow:
		return LevelLow
	case LevelMedium:
		return LevelMedium
	case LevelHigh:
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// Rank returns a numeric rank for sorting (higher = more severe).
func Rank(l Level) int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if l is at or above the threshold.
// A threshold of "none" or "" never matches.
func MeetsThreshold(l Level, threshold string) bool {
	if threshold == "" || strings.EqualFold(threshold, "none") {
		return false
	}
	t := ParseLevel(threshold)
	if t == LevelUnknown {
		return false
	}
	return Rank(l) >= Rank(t)
}

// Category is the kind of information an element exposes.
type Category string

const (
	CategoryPersonalInfo Category = "PERSONAL_INFO"
	CategoryFinancial    Category = "FINANCIAL"
	CategoryMedical      Category = "MEDICAL"
	CategoryLocation     Category = "LOCATION"
	CategoryEmployment   Category = "EMPLOYMENT"
	CategoryFamily       Category = "FAMILY"
	CategoryDates        Category = "DATES"
	CategoryCredentials  Category = "CREDENTIALS"
	CategoryCritical     Category = "CRITICAL"
	CategoryOther        Category = "OTHER"
)

// Categories lists every known category in prompt order.
var Categories = []Category{
	CategoryPersonalInfo,
	CategoryFinancial,
	CategoryMedical,
	CategoryLocation,
	CategoryEmployment,
	CategoryFamily,
	CategoryDates,
	CategoryCredentials,
	CategoryCritical,
	CategoryOther,
}

// ParseCategory normalises a category name; unknown names map to OTHER.
func ParseCategory(s string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// MaxAlternatives bounds the rephrasing suggestions kept per element.
const MaxAlternatives = 4

// Element is a single risky phrase reported by a classifier.
type Element struct {
	Text         string   `json:"text"`
	Category     Category `json:"category"`
	Explanation  string   `json:"explanation"`
	Alternatives []string `json:"alternatives,omitempty"`
	Severity     Level    `json:"severity"`
}

// Analysis is the immutable result of classifying one text.
type Analysis struct {
	Level            Level     `json:"riskLevel"`
	Confidence       int       `json:"confidence"`
	Elements         []Element `json:"riskyElements"`
	OverallConcerns  []string  `json:"overallConcerns,omitempty"`
	Recommendations  []string  `json:"recommendations,omitempty"`
	DetectedKeywords []string  `json:"detectedKeywords,omitempty"`
}

// Clone returns a copy of a that shares no slices with it.
func (a Analysis) Clone() Analysis {
	c := a
	if a.Elements != nil {
		c.Elements = make([]Element, len(a.Elements))
		for i, e := range a.Elements {
			e.Alternatives = slices.Clone(e.Alternatives)
			c.Elements[i] = e
		}
	}
	c.OverallConcerns = slices.Clone(a.OverallConcerns)
	c.Recommendations = slices.Clone(a.Recommendations)
	c.DetectedKeywords = slices.Clone(a.DetectedKeywords)
	return c
}

// Counts holds element counts by severity.
type Counts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary is what a status banner needs.
type Summary struct {
	Level           Level  `json:"level"`
	Confidence      int    `json:"confidence"`
	Elements        int    `json:"elements"`
	Counts          Counts `json:"counts"`
	HighestSeverity Level  `json:"highestSeverity"`
}

// Summarize computes the banner summary for a.
func Summarize(a Analysis) Summary {
	s := Summary{
		Level:      a.Level,
		Confidence: a.Confidence,
		Elements:   len(a.Elements),
	}
	for _, e := range a.Elements {
		switch e.Severity {
		case LevelLow:
			s.Counts.Low++
		case LevelMedium:
			s.Counts.Medium++
		case LevelHigh:
			s.Counts.High++
		}
		if Rank(e.Severity) > Rank(s.HighestSeverity) {
			s.HighestSeverity = e.Severity
		}
	}
	return s
}

// ShowBanner reports whether a banner should be shown for a: there must be
// at least one element and the overall level must not be LOW.
func ShowBanner(a Analysis) bool {
	return len(a.Elements) > 0 && a.Level != LevelLow
}
