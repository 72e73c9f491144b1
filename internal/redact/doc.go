// Package redact finds secrets in free text.
//
// Detection uses regex heuristics covering common secret shapes: API keys
// (Anthropic, OpenAI, Google), JWTs, private keys, AWS access key IDs and
// secret access keys, bearer tokens, GitHub and Slack tokens, and password
// or token assignments.
//
// Detect reports where secrets sit so the classifier can flag them as
// credentials without asking a remote model. Secrets replaces them with
// [REDACTED] before text is sent off the machine or written to a log.
package redact
