package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/postguard/internal/pipeline"
	"github.com/dshills/postguard/internal/risk"
)

func TestMarkdownWriter_WithSpans(t *testing.T) {
	var buf bytes.Buffer
	w := &MarkdownWriter{ConfidenceThreshold: 70}
	if err := w.Write(&buf, Report{Name: "post.txt", Frame: sampleFrame()}); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"## postguard: post.txt",
		"| High     | 1    |",
		"| **Total** | **2** |",
		"**HIGH risk** (92% confidence)",
		"> I live at **123 Main St** and my SSN is **123-45-6789**",
		"<summary>:red_circle: <code>123-45-6789</code> (PERSONAL_INFO)</summary>",
		"- downtown",
		"### Recommendations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_Clean(t *testing.T) {
	a := risk.Analysis{Level: risk.LevelLow, Elements: []risk.Element{}}
	var buf bytes.Buffer
	(&MarkdownWriter{}).Write(&buf, Report{Name: "stdin", Frame: pipeline.Frame{Text: "hi", Analysis: &a}})

	if !strings.Contains(buf.String(), "No privacy risks found") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestMarkdownWriter_Error(t *testing.T) {
	var buf bytes.Buffer
	(&MarkdownWriter{}).Write(&buf, Report{Name: "stdin", Frame: pipeline.Frame{Err: errors.New("boom")}})
	if !strings.Contains(buf.String(), "Classification unavailable: `boom`") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a*b_c <x>"); got != `a\*b\_c &lt;x&gt;` {
		t.Errorf("escapeMarkdown = %q", got)
	}
}

func TestMdSeverityIcon(t *testing.T) {
	tests := map[risk.Level]string{
		risk.LevelHigh:    ":red_circle:",
		risk.LevelMedium:  ":orange_circle:",
		risk.LevelLow:     ":yellow_circle:",
		risk.LevelUnknown: ":white_circle:",
	}
	for l, want := range tests {
		if got := mdSeverityIcon(l); got != want {
			t.Errorf("mdSeverityIcon(%s) = %q, want %q", l, got, want)
		}
	}
}
