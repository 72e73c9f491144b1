// Package gate decides when an edited buffer is worth classifying again.
//
// Classifier calls are slow and cost money, so the gate filters edit events
// in three stages: an exact hit on the normalised text key in the result
// cache, a token-set Jaccard similarity above 0.9 against the last analyzed
// text, and finally a structural delta that ignores small changes which do
// not alter the normalised key (whitespace and case edits). Only edits that
// get through all three trigger a classification.
package gate
