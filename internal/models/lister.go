package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/upstream"
)

// Catalog groups model IDs by use. A model can appear in more than one group.
type Catalog struct {
	Translation   []string
	Vision        []string
	Speech        []string
	Transcription []string
}

// Lister handles listing available OpenAI models
type Lister struct {
	client *openai.Client
}

// NewLister creates a new model lister using the service credential
func NewLister(creds *credential.Store, baseURL string) (*Lister, error) {
	client, err := upstream.NewOpenAIClient(creds, baseURL)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .polyglot.yaml: %w", err)
	}
	return &Lister{client: client}, nil
}

// List fetches and categorises the available models
func (l *Lister) List(ctx context.Context) (*Catalog, error) {
	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		ids = append(ids, m.ID)
	}
	return Categorize(ids), nil
}

// Categorize sorts model IDs into a Catalog. Unrelated models are dropped.
func Categorize(ids []string) *Catalog {
	c := &Catalog{}

	for _, id := range ids {
		switch {
		case strings.Contains(id, "transcribe") || strings.Contains(id, "whisper"):
			c.Transcription = append(c.Transcription, id)
		case strings.Contains(id, "tts"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(id, "realtime") || strings.Contains(id, "audio") ||
			strings.Contains(id, "search") || strings.Contains(id, "instruct"):
			// not usable for plain chat completions
		case strings.HasPrefix(id, "gpt") || strings.Contains(id, "chat"):
			c.Translation = append(c.Translation, id)
			if isVision(id) {
				c.Vision = append(c.Vision, id)
			}
		}
	}

	sort.Strings(c.Translation)
	sort.Strings(c.Vision)
	sort.Strings(c.Speech)
	sort.Strings(c.Transcription)
	return c
}

func isVision(id string) bool {
	for _, prefix := range []string{"gpt-4o", "gpt-4.1", "gpt-4-turbo", "gpt-5"} {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return strings.Contains(id, "vision")
}

// Print writes the catalog in a human readable form
func (c *Catalog) Print(w io.Writer) {
	fmt.Fprintln(w, "Available OpenAI Models:")
	printGroup(w, "Translation Models", "translation", c.Translation)
	printGroup(w, "Image Text Extraction (vision) Models", "vision", c.Vision)
	printGroup(w, "Text-to-Speech (TTS) Models", "TTS", c.Speech)
	printGroup(w, "Transcription Models", "transcription", c.Transcription)
}

func printGroup(w io.Writer, title, kind string, ids []string) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(ids) == 0 {
		fmt.Fprintf(w, "  No %s models found\n", kind)
		return
	}
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
