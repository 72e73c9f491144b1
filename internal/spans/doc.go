// Package spans maps classifier output onto the text being edited.
//
// A classifier reports risky phrases, not positions. Resolve searches the
// buffer for every occurrence of each phrase (literal, case-insensitive)
// and reduces the pooled matches to an ascending, non-overlapping list of
// spans that a renderer can draw directly. Segments turns that list back
// into a sequence of plain and highlighted pieces of the buffer.
package spans
