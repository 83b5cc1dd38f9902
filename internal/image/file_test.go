package image

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/testutil"
)

func TestNewFileSniffsMIME(t *testing.T) {
	f := NewFile("sign.png", testutil.PNGHeader)
	if f.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", f.MIMEType)
	}
	if f.Size != int64(len(testutil.PNGHeader)) {
		t.Errorf("Size = %d", f.Size)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		file      *File
		wantField string
	}{
		{"png", &File{MIMEType: "image/png", Size: 10}, ""},
		{"at limit", &File{MIMEType: "image/jpeg", Size: MaxFileSize}, ""},
		{"text file", &File{MIMEType: "text/plain; charset=utf-8", Size: 10}, "file_type"},
		{"pdf", &File{MIMEType: "application/pdf", Size: 10}, "file_type"},
		{"too large", &File{MIMEType: "image/png", Size: MaxFileSize + 1}, "file_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			ve, ok := err.(*apperr.ValidationError)
			if !ok {
				t.Fatalf("Validate() = %T %v, want ValidationError", err, err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.png")
	testutil.CreateTestFile(t, path, testutil.PNGHeader)

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if f.Name != "menu.png" || f.MIMEType != "image/png" {
		t.Errorf("Got %q %q", f.Name, f.MIMEType)
	}

	if _, err := OpenFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestOpenFileRejectsLargeFileWithoutReading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Sparse file: large stat size, nothing written
	if err := fh.Truncate(MaxFileSize + 1); err != nil {
		t.Fatal(err)
	}
	fh.Close()

	_, err = OpenFile(path)
	if !apperr.IsValidation(err) {
		t.Errorf("OpenFile() = %v, want validation error", err)
	}
}

func TestStripDataURI(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"data:image/png;base64,iVBORw0", "iVBORw0"},
		{"iVBORw0", "iVBORw0"},
		{"data:broken", "data:broken"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripDataURI(tt.input); got != tt.want {
			t.Errorf("StripDataURI(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFromDataURI(t *testing.T) {
	f := NewFile("x", testutil.PNGHeader)
	uri := "data:image/png;base64," + f.Encode()

	got, err := FromDataURI("pasted.png", uri)
	if err != nil {
		t.Fatalf("FromDataURI failed: %v", err)
	}
	if got.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", got.MIMEType)
	}

	if _, err := FromDataURI("bad", "data:image/png;base64,***"); !apperr.IsValidation(err) {
		t.Errorf("FromDataURI() = %v, want validation error", err)
	}
}
