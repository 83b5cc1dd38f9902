package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal"
	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/batch"
	"codeberg.org/snonux/polyglot/internal/cli"
	"codeberg.org/snonux/polyglot/internal/clipboard"
	"codeberg.org/snonux/polyglot/internal/history"
	"codeberg.org/snonux/polyglot/internal/image"
	"codeberg.org/snonux/polyglot/internal/languages"
	"codeberg.org/snonux/polyglot/internal/notify"
	"codeberg.org/snonux/polyglot/internal/orchestration"
	"codeberg.org/snonux/polyglot/internal/service"
	"codeberg.org/snonux/polyglot/internal/translation"
)

// Processor handles the polyglot commands
type Processor struct {
	flags    *cli.Flags
	config   *cli.Config
	client   *service.Client
	notifier notify.Notifier
	in       io.Reader
	out      io.Writer
	status   io.Writer // transient progress such as the silence countdown
	copyText func(text string) error
}

// NewProcessor creates a new processor talking to the configured service
func NewProcessor(flags *cli.Flags, config *cli.Config) *Processor {
	client := service.New(&service.Config{
		BaseURL: config.Server.URL,
		Timeout: config.Server.Timeout() + 30*time.Second,
	}, audio.NewCommandPlayer())

	return &Processor{
		flags:    flags,
		config:   config,
		client:   client,
		notifier: notify.NewConsole(os.Stderr),
		in:       os.Stdin,
		out:      os.Stdout,
		status:   os.Stderr,
		copyText: clipboard.Write,
	}
}

// target returns the display name of the requested target language
func (p *Processor) target() string {
	return languages.Resolve(p.flags.To)
}

// newSession creates an orchestration session. The returned function
// closes the history database when one was opened.
func (p *Processor) newSession(target string) (*orchestration.Session, func(), error) {
	opts := orchestration.Options{
		Translator: p.client,
		Speaker:    p.client,
		Clipboard:  p.copyText,
		Notifier:   p.notifier,
	}

	closer := func() {}
	if path := p.config.History.Path; path != "" {
		store, err := history.Open(path)
		if err != nil {
			return nil, nil, err
		}
		opts.History = store
		closer = func() { store.Close() }
	}

	return orchestration.NewSession(opts, target), closer, nil
}

// finish runs the optional actions on a fresh translation
func (p *Processor) finish(ctx context.Context, session *orchestration.Session) error {
	if p.flags.Copy {
		if err := session.CopyResult(); err != nil {
			return err
		}
	}
	if p.flags.Speak {
		return session.Speak(ctx)
	}
	return nil
}

// Translate translates the arguments, stdin or a batch file
func (p *Processor) Translate(ctx context.Context, args []string) error {
	if p.flags.BatchFile != "" {
		return p.translateBatch(ctx)
	}

	inputType, err := translation.ParseInputType(p.flags.InputType)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if len(args) == 0 || text == "-" {
		data, err := io.ReadAll(p.in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	session, closeSession, err := p.newSession(p.target())
	if err != nil {
		return err
	}
	defer closeSession()

	result, err := session.Translate(ctx, text, session.Target(), inputType)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, result)

	return p.finish(ctx, session)
}

func (p *Processor) translateBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	session, closeSession, err := p.newSession(p.target())
	if err != nil {
		return err
	}
	defer closeSession()

	// Track statistics
	translatedCount := 0
	errorCount := 0

	for i, entry := range entries {
		target := session.Target()
		if entry.Language != "" {
			target = entry.Language
		}

		fmt.Fprintf(p.out, "\nTranslating %d/%d into %s: %s\n", i+1, len(entries), target, internal.Truncate(entry.Text, 60))

		result, err := session.Translate(ctx, entry.Text, target, translation.InputText)
		if err != nil {
			log.Debug().Err(err).Int("line", i+1).Msg("Batch entry failed")
			errorCount++
			// Continue with next entry
			continue
		}
		fmt.Fprintf(p.out, "  → %s\n", result)
		translatedCount++
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Translation Summary ===\n")
	fmt.Fprintf(p.out, "Total phrases: %d\n", len(entries))
	fmt.Fprintf(p.out, "Translated: %d\n", translatedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "=================================\n")

	if errorCount > 0 {
		return fmt.Errorf("%d of %d phrases failed", errorCount, len(entries))
	}
	return nil
}

// OCR extracts text from an image file and translates it when a target
// language is given
func (p *Processor) OCR(ctx context.Context, path string) error {
	file, err := image.OpenFile(path)
	if err != nil {
		p.notifier.Notify(notify.Error(err))
		return err
	}

	previews, err := image.NewTempPreviewStore("")
	if err != nil {
		return err
	}
	defer previews.Close()

	pipeline := image.NewPipeline(p.client, previews)
	defer pipeline.Remove()

	attachment, err := pipeline.Submit(ctx, file)
	if errors.Is(err, image.ErrNoTextFound) {
		p.notifier.Notify(notify.Info("No Text Found", "No readable text was found in the image."))
		return err
	}
	if err != nil {
		p.notifier.Notify(notify.Error(err))
		return err
	}

	fmt.Fprintf(p.out, "Extracted text:\n%s\n", attachment.Text)
	if p.flags.To == "" {
		return nil
	}

	session, closeSession, err := p.newSession(p.target())
	if err != nil {
		return err
	}
	defer closeSession()

	session.OnImageText(attachment.Text)
	result, err := session.TranslateCurrent(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "\nTranslation (%s):\n%s\n", session.Target(), result)

	return p.finish(ctx, session)
}

// Speak reads text aloud through the service
func (p *Processor) Speak(ctx context.Context, args []string) error {
	if err := p.client.Speak(ctx, strings.Join(args, " ")); err != nil {
		p.notifier.Notify(notify.Error(err))
		return err
	}
	return nil
}

// History prints recent translations
func (p *Processor) History(ctx context.Context) error {
	path := p.config.History.Path
	if path == "" {
		return errors.New("translation history is disabled; set history.path in the configuration")
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, p.flags.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No translations recorded yet")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(p.out, "%s  [%s → %s]  %s\n    %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.InputType, e.TargetLanguage,
			internal.Truncate(e.SourceText, 60), e.TranslatedText)
	}
	return nil
}
