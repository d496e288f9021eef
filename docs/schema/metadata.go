// Package schema exposes the canonical session metadata example embedded
// for documentation and tooling use. The sample is a complete, valid wire
// document and doubles as the reference for the field names and ordering
// the downstream conversion pipeline expects.
package schema

import _ "embed"

// Canonical session metadata YAML embedded for runtime access.
//
//go:embed session-metadata.sample.yml
var sampleMetadata []byte

// SampleMetadata returns a copy of the canonical session metadata document.
func SampleMetadata() []byte {
	return append([]byte(nil), sampleMetadata...)
}
