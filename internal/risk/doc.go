// Package risk defines the analysis produced by a risk classifier: the
// overall level and confidence, and the ordered list of risky elements with
// their category, explanation, severity and up to four safer alternatives.
//
// Values of these types are treated as immutable once a classifier returns
// them; the pipeline caches and re-resolves them but never edits them.
package risk
