// Package classify turns a text buffer into a risk.Analysis by prompting an
// LLM completer and validating its reply.
//
// The Classifier builds the prompt from the user's settings (strictness and
// custom instruction) and an optional policy pack. Replies are stripped of
// markdown fences, validated against a JSON Schema, and normalised: raw
// categories and levels are mapped onto the risk package's enums and
// alternatives are capped at four. A malformed reply is a *ParseError;
// when repair is enabled the model gets one chance to fix it.
//
// Secrets found locally by the redact package can be merged into the result
// as CREDENTIALS elements and scrubbed from the text before it is sent.
package classify
