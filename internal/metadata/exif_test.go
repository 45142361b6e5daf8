package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeMissingFile(t *testing.T) {
	decoder := NewExifDecoder()
	if _, err := decoder.Decode(filepath.Join(t.TempDir(), "absent.dng")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDecodeRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_an_image.dng")
	if err := os.WriteFile(path, []byte("plain text, no marker"), 0o644); err != nil {
		t.Fatal(err)
	}
	decoder := NewExifDecoder()
	fields, err := decoder.Decode(path)
	if err == nil {
		t.Fatal("expected error for file without EXIF data")
	}
	if fields != (Fields{}) {
		t.Fatalf("expected zero fields on decode failure, got %+v", fields)
	}
}
