// Package providers implements the Completer interface for each supported
// LLM provider.
//
// Supported providers: Google (Gemini), Anthropic (Claude), OpenAI (GPT),
// and Ollama / LM Studio for local models.
//
// Credentials come from the environment only. A missing or placeholder key
// is reported as a *ConfigError before any request is made; network
// failures and non-200 statuses come back as a *TransportError. Rate-limit
// and 5xx responses are retried with exponential back-off up to
// Options.Retries times. Response bodies are read with gjson rather than
// mirrored in structs, since only one or two fields of each are needed.
//
// Use [New] to obtain a Completer by provider name and model string.
package providers
