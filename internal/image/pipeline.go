package image

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/apperr"
)

// ProcessingFailedMessage is shown for any extraction failure that is not
// caused by the input itself
const ProcessingFailedMessage = "Could not process the image. Try again later or with a different image."

var (
	// ErrNoTextFound means the image was processed but holds no readable text
	ErrNoTextFound = errors.New("no readable text found in the image")

	// ErrSuperseded means the attachment was removed or replaced while
	// its text was being extracted
	ErrSuperseded = errors.New("image was removed or replaced during processing")
)

// TextExtractor reads the text in a base64 encoded image
type TextExtractor interface {
	ExtractText(ctx context.Context, base64Image string) (string, error)
}

// Attachment is the image currently on display
type Attachment struct {
	Name     string
	MIMEType string
	Size     int64
	Preview  PreviewHandle
	Text     string
}

// Pipeline turns picked files into extracted text. It owns at most one
// attachment and its preview handle at a time.
type Pipeline struct {
	extractor TextExtractor
	previews  PreviewStore

	mu         sync.Mutex
	current    *Attachment
	generation uint64
}

// NewPipeline creates a pipeline
func NewPipeline(extractor TextExtractor, previews PreviewStore) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		previews:  previews,
	}
}

// Submit validates f, replaces the current attachment with it and extracts
// its text. Invalid files fail with a ValidationError before any network
// call. On every failure the new preview is released again.
func (p *Pipeline) Submit(ctx context.Context, f *File) (*Attachment, error) {
	if f == nil {
		return nil, apperr.NewValidation("file", "No file selected")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.releaseLocked()
	handle, err := p.previews.Create(f.Data, f.MIMEType)
	if err != nil {
		p.mu.Unlock()
		return nil, &apperr.ProcessingError{Message: ProcessingFailedMessage, Err: err}
	}
	att := &Attachment{Name: f.Name, MIMEType: f.MIMEType, Size: f.Size, Preview: handle}
	p.current = att
	generation := p.generation
	p.mu.Unlock()

	log.Debug().Str("file", f.Name).Str("mime", f.MIMEType).Int64("size", f.Size).Msg("Extracting image text")
	text, err := p.extractor.ExtractText(ctx, StripDataURI(f.Encode()))

	p.mu.Lock()
	defer p.mu.Unlock()

	// A Remove or newer Submit has already released this preview
	stale := p.generation != generation

	if err != nil {
		if !stale {
			p.releaseLocked()
		}
		log.Error().Err(err).Str("file", f.Name).Msg("Image text extraction failed")
		return nil, collapse(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		if !stale {
			p.releaseLocked()
		}
		return nil, ErrNoTextFound
	}
	if stale {
		return nil, ErrSuperseded
	}

	att.Text = text
	result := *att
	return &result, nil
}

// collapse keeps validation-class detail and hides everything else
// behind the fixed processing message
func collapse(err error) error {
	if apperr.IsValidation(err) || errors.Is(err, context.Canceled) {
		return err
	}
	return &apperr.ProcessingError{Message: ProcessingFailedMessage, Err: err}
}

// Remove releases the current attachment. Safe to call when there is none.
func (p *Pipeline) Remove() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

// Current returns a copy of the attachment on display, if any
func (p *Pipeline) Current() (Attachment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Attachment{}, false
	}
	return *p.current, true
}

func (p *Pipeline) releaseLocked() {
	p.generation++
	if p.current == nil {
		return
	}
	if err := p.previews.Revoke(p.current.Preview); err != nil {
		log.Warn().Err(err).Str("preview", string(p.current.Preview)).Msg("Failed to revoke preview")
	}
	p.current = nil
}
