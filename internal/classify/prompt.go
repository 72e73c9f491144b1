package classify

import (
	"fmt"
	"strings"

	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/settings"
)

const systemPrompt = `You are a privacy and security expert analyzing social media posts for potential privacy risks.

Your task:
1. Identify words, phrases, or patterns that are sensitive, specific, and could realistically be used for harm (full addresses, SSNs, account numbers, specific medical diagnoses, full phone numbers, credentials). Also flag things the author probably should not say (threats, harassment, slurs).
2. Do not flag general statements, feelings, vague references, or partial information ("my medical life is good", "I went to the doctor", "my address is in New York").
3. For each risky element, explain in one concise sentence why it is risky and how it could be exploited.
4. Where reasonable, suggest up to four safer alternative phrases. Each alternative is a replacement for the element alone. If no rephrasing makes sense, suggest removing it.
5. Quote each element's "text" exactly as it appears in the post so it can be located.

Respond with ONLY a JSON object in this exact shape. No markdown, no preamble:
{
  "riskLevel": "LOW|MEDIUM|HIGH",
  "confidence": 90,
  "riskyElements": [
    {
      "text": "the risky word or phrase",
      "type": "%s",
      "risk": "why this is risky and how it could be exploited",
      "alternatives": ["safer alternative 1", "safer alternative 2"],
      "severity": "LOW|MEDIUM|HIGH"
    }
  ],
  "overallConcerns": ["short list of main privacy concerns"],
  "recommendations": ["short list of general recommendations"],
  "detectedKeywords": ["every risky word or phrase found"]
}

If no risks are found, respond with:
{"riskLevel": "LOW", "confidence": 95, "riskyElements": [], "overallConcerns": [], "recommendations": ["Your post appears safe to share"], "detectedKeywords": []}`

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	names := make([]string, len(risk.Categories))
	for i, c := range risk.Categories {
		names[i] = string(c)
	}
	return fmt.Sprintf(systemPrompt, strings.Join(names, "|"))
}

var strictnessGuidance = map[settings.Strictness]string{
	settings.StrictnessRelaxed: "Only flag information that is clearly dangerous to publish. If you are not at least 95% confident it is a real risk, do not flag it.",
	settings.StrictnessBalanced: "If you are not at least 90% confident that the information is a real privacy risk, do not flag it. When unsure, do not flag.",
	settings.StrictnessStrict: "Flag anything that could plausibly identify, locate, or be used against the author, even when you are only 70% confident.",
}

// BuildUserPrompt constructs the user prompt for text.
func BuildUserPrompt(text string, s settings.Settings, policy *Policy) string {
	var b strings.Builder

	b.WriteString("Analyze the following post.\n\n")

	guidance, ok := strictnessGuidance[s.Strictness]
	if !ok {
		guidance = strictnessGuidance[settings.StrictnessBalanced]
	}
	b.WriteString(guidance)
	b.WriteString("\n")

	if section := policy.PromptSection(); section != "" {
		b.WriteString(section)
	}

	if ci := strings.TrimSpace(s.CustomInstruction); ci != "" {
		fmt.Fprintf(&b, "\nADDITIONAL USER CONTEXT: %s\n", ci)
	}

	b.WriteString("\n--- BEGIN POST ---\n")
	b.WriteString(text)
	b.WriteString("\n--- END POST ---\n")

	return b.String()
}

func repairPrompt(err error, previous string) string {
	return fmt.Sprintf(
		"Your previous response was not valid. The error was: %s\n\nPlease fix it and respond with ONLY the JSON object described in the instructions.\n\nYour previous response was:\n%s",
		err.Error(), previous,
	)
}
