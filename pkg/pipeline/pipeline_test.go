package pipeline

import (
	"slices"
	"testing"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"gds", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"GDS", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"gds", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if !slices.Equal(o.Formats, DefaultFormats) {
		t.Errorf("Formats = %v, want %v", o.Formats, DefaultFormats)
	}
	if o.Width != 1024 || o.Workers < 1 || o.Logger == nil {
		t.Errorf("defaults not applied: %+v", o)
	}

	o = Options{Formats: []string{"svg", "gds", "svg"}}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if !slices.Equal(o.Formats, []string{"gds", "svg"}) {
		t.Errorf("Formats = %v, want sorted and unique", o.Formats)
	}

	o = Options{Formats: []string{"tiff"}}
	if err := o.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{Width: 512}
	if got := o.ArtifactKeyOpts(FormatGDS); got.Width != 0 || got.Format != "gds" {
		t.Errorf("gds key opts = %+v", got)
	}
	if got := o.ArtifactKeyOpts(FormatPNG); got.Width != 512 {
		t.Errorf("png key opts = %+v", got)
	}
}
