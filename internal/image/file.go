package image

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"codeberg.org/snonux/polyglot/internal/apperr"
)

// MaxFileSize is the largest image accepted by the pipeline
const MaxFileSize = 50 * 1024 * 1024

// File is a picked file: a binary blob with its MIME type and length
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// NewFile wraps data, sniffing its MIME type from the content
func NewFile(name string, data []byte) *File {
	return &File{
		Name:     name,
		MIMEType: mimetype.Detect(data).String(),
		Size:     int64(len(data)),
		Data:     data,
	}
}

// OpenFile reads an image from disk. Files larger than MaxFileSize are
// rejected from their stat size without being read.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return nil, errTooLarge()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return NewFile(filepath.Base(path), data), nil
}

// FromDataURI decodes a "data:image/png;base64,..." URI into a File
func FromDataURI(name, uri string) (*File, error) {
	data, err := base64.StdEncoding.DecodeString(StripDataURI(uri))
	if err != nil {
		return nil, apperr.NewValidation("file_type", "Please upload a valid image file (e.g., .jpg, .png).")
	}
	return NewFile(name, data), nil
}

// Validate checks the type and size constraints
func (f *File) Validate() error {
	if !strings.HasPrefix(f.MIMEType, "image/") {
		return apperr.NewValidation("file_type", "Please upload a valid image file (e.g., .jpg, .png).")
	}
	if f.Size > MaxFileSize {
		return errTooLarge()
	}
	return nil
}

func errTooLarge() error {
	return apperr.NewValidation("file_size", "Image is too large. Please upload a smaller image.")
}

// Encode returns the transfer encoding of the file content
func (f *File) Encode() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// StripDataURI removes a "data:<mime>;base64," prefix if present
func StripDataURI(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}
