package schema

import (
	"bytes"
	"testing"

	"sessioncore/internal/validation"
	"sessioncore/internal/wire"
	"sessioncore/pkg/device"
)

func TestSampleMetadataDecodes(t *testing.T) {
	doc, err := wire.Decode(SampleMetadata())
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	if doc.SessionID != "remy_20230622" {
		t.Fatalf("unexpected session id %q", doc.SessionID)
	}
	if len(doc.ChannelMaps) != 1 || len(doc.ChannelMaps[0].Map) != 4 {
		t.Fatalf("unexpected channel maps: %+v", doc.ChannelMaps)
	}
}

func TestSampleMetadataIsValid(t *testing.T) {
	doc, err := wire.Decode(SampleMetadata())
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	result := validation.NewDefaultEngine(device.Builtin()).Validate(doc)
	if !result.IsValid() {
		t.Fatalf("sample does not validate: %+v", result.Errors)
	}
	if result.BlocksExport() {
		t.Fatalf("sample blocks export: %+v", result.Errors)
	}
}

func TestSampleMetadataCanonicalForm(t *testing.T) {
	doc, err := wire.Decode(SampleMetadata())
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	first, err := wire.Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := wire.Decode(first)
	if err != nil {
		t.Fatalf("decode canonical form: %v", err)
	}
	second, err := wire.Encode(again)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("canonical form is not stable:\n%s\n----\n%s", first, second)
	}
}

func TestSampleMetadataReturnsCopy(t *testing.T) {
	a := SampleMetadata()
	a[0] = '#'
	if b := SampleMetadata(); b[0] == '#' {
		t.Fatal("mutation leaked into embedded sample")
	}
}
