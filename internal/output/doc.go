// Package output renders pipeline frames in text, JSON, and markdown.
//
// The text writer underlines risky phrases in place (lipgloss styles when
// color is enabled, [[double brackets]] otherwise), then lists each span
// with its explanation and alternatives. The JSON writer emits spans with
// rune offsets plus the banner summary. The markdown writer is suited to
// pasting into an issue or chat.
package output
