package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/spans"
)

// JSONWriter outputs the frame as a JSON document.
type JSONWriter struct {
	ConfidenceThreshold int
}

type jsonReport struct {
	Name            string        `json:"name"`
	Text            string        `json:"text"`
	Source          string        `json:"source"`
	AnalyzedAt      *time.Time    `json:"analyzedAt,omitempty"`
	Error           string        `json:"error,omitempty"`
	ShowBanner      bool          `json:"showBanner"`
	ShowConfidence  bool          `json:"showConfidence"`
	Summary         *risk.Summary `json:"summary,omitempty"`
	Spans           []spans.Span  `json:"spans"`
	OverallConcerns []string      `json:"overallConcerns,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

func (j *JSONWriter) Write(w io.Writer, r Report) error {
	f := r.Frame
	out := jsonReport{
		Name:   r.Name,
		Text:   f.Text,
		Source: string(f.Source),
		Spans:  f.Spans,
	}
	if out.Spans == nil {
		out.Spans = []spans.Span{}
	}
	if !f.At.IsZero() {
		at := f.At.UTC()
		out.AnalyzedAt = &at
	}
	if f.Err != nil {
		out.Error = f.Err.Error()
	}
	if f.Analysis != nil {
		s := risk.Summarize(*f.Analysis)
		out.Summary = &s
		out.ShowBanner = risk.ShowBanner(*f.Analysis)
		out.ShowConfidence = s.Confidence > 0 && s.Confidence >= j.ConfidenceThreshold
		out.OverallConcerns = f.Analysis.OverallConcerns
		out.Recommendations = f.Analysis.Recommendations
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
