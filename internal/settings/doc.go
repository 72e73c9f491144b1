// Package settings holds the user preferences that shape a classification
// request: how strict the classifier should be and a free-form custom
// instruction. The file-backed store reads and writes YAML.
package settings
