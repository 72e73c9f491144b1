package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dshills/postguard/internal/risk"
)

// ParseError reports a reply that is not JSON or lacks required fields.
// Raw keeps the reply for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid classifier reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError checks if an error is a malformed classifier reply.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

const replySchemaURL = "postguard://reply.schema.json"

const replySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["riskLevel", "riskyElements"],
  "properties": {
    "riskLevel": {"type": "string", "minLength": 1},
    "confidence": {"type": ["number", "string"], "pattern": "^[0-9]+(\\.[0-9]+)?$"},
    "riskyElements": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {"type": "string"},
          "type": {"type": "string"},
          "category": {"type": "string"},
          "risk": {"type": "string"},
          "explanation": {"type": "string"},
          "alternatives": {"type": "array", "items": {"type": "string"}},
          "severity": {"type": "string"}
        }
      }
    },
    "overallConcerns": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "detectedKeywords": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledReplySchema = mustCompileReplySchema()

func mustCompileReplySchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(replySchemaURL, strings.NewReader(replySchema)); err != nil {
		panic(fmt.Sprintf("add reply schema: %v", err))
	}
	return compiler.MustCompile(replySchemaURL)
}

// rawReply is the JSON structure returned by the LLM.
type rawReply struct {
	RiskLevel        string       `json:"riskLevel"`
	Confidence       json.Number  `json:"confidence"`
	RiskyElements    []rawElement `json:"riskyElements"`
	OverallConcerns  []string     `json:"overallConcerns"`
	Recommendations  []string     `json:"recommendations"`
	DetectedKeywords []string     `json:"detectedKeywords"`
}

type rawElement struct {
	Text         string   `json:"text"`
	Type         string   `json:"type"`
	Category     string   `json:"category"`
	Risk         string   `json:"risk"`
	Explanation  string   `json:"explanation"`
	Alternatives []string `json:"alternatives"`
	Severity     string   `json:"severity"`
}

// ParseReply validates and normalises a model reply.
func ParseReply(content string) (risk.Analysis, error) {
	cleaned := stripFences(content)

	var instance any
	if err := json.Unmarshal([]byte(cleaned), &instance); err != nil {
		return risk.Analysis{}, &ParseError{Raw: content, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := compiledReplySchema.Validate(instance); err != nil {
		return risk.Analysis{}, &ParseError{Raw: content, Err: err}
	}

	var raw rawReply
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return risk.Analysis{}, &ParseError{Raw: content, Err: fmt.Errorf("decoding reply: %w", err)}
	}

	a := risk.Analysis{
		Level:            risk.ParseLevel(raw.RiskLevel),
		Confidence:       normaliseConfidence(raw.Confidence),
		Elements:         make([]risk.Element, 0, len(raw.RiskyElements)),
		OverallConcerns:  raw.OverallConcerns,
		Recommendations:  raw.Recommendations,
		DetectedKeywords: raw.DetectedKeywords,
	}
	for _, r := range raw.RiskyElements {
		a.Elements = append(a.Elements, r.element())
	}
	return a, nil
}

func (r rawElement) element() risk.Element {
	cat := r.Category
	if cat == "" {
		cat = r.Type
	}
	explanation := r.Explanation
	if explanation == "" {
		explanation = r.Risk
	}
	alts := r.Alternatives
	if len(alts) > risk.MaxAlternatives {
		alts = alts[:risk.MaxAlternatives]
	}
	return risk.Element{
		Text:         r.Text,
		Category:     risk.ParseCategory(cat),
		Explanation:  explanation,
		Alternatives: alts,
		Severity:     risk.ParseLevel(r.Severity),
	}
}

// normaliseConfidence maps a reply's confidence onto 0-100. Fractions in
// (0, 1] are read as probabilities.
func normaliseConfidence(n json.Number) int {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0
	}
	if f > 0 && f <= 1 {
		f *= 100
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return strings.Trim(content, "`")
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
