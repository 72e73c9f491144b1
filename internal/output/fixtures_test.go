package output

import (
	"time"

	"github.com/dshills/postguard/internal/pipeline"
	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/spans"
)

const sampleText = "I live at 123 Main St and my SSN is 123-45-6789"

func sampleFrame() pipeline.Frame {
	a := risk.Analysis{
		Level:      risk.LevelHigh,
		Confidence: 92,
		Elements: []risk.Element{
			{Text: "123 Main St", Category: risk.CategoryLocation, Explanation: "A full street address locates you.", Alternatives: []string{"downtown"}, Severity: risk.LevelMedium},
			{Text: "123-45-6789", Category: risk.CategoryPersonalInfo, Explanation: "SSNs enable identity theft.", Severity: risk.LevelHigh},
		},
		OverallConcerns: []string{"Identity theft"},
		Recommendations: []string{"Remove the SSN"},
	}
	return pipeline.Frame{
		Text:     sampleText,
		Spans:    spans.Resolve(sampleText, a.Elements),
		Analysis: &a,
		Source:   pipeline.SourceClassifier,
		At:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
