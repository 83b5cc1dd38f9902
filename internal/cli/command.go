package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/polyglot/internal"
)

// Runner executes the polyglot commands once configuration is loaded
type Runner interface {
	Serve(ctx context.Context) error
	Translate(ctx context.Context, args []string) error
	OCR(ctx context.Context, path string) error
	Speak(ctx context.Context, args []string) error
	Listen(ctx context.Context) error
	History(ctx context.Context) error
}

// RunnerFactory builds the Runner after flags and config have been parsed
type RunnerFactory func() (Runner, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "polyglot",
		Short: "Multimodal translation from text, speech and images",
		Long: `polyglot translates typed text, speech and text found in images.

The serve command runs the proxy that holds the provider API keys. All
other commands are clients of that proxy.

Examples:
  polyglot serve                               # Run the proxy on :8787
  polyglot translate "Hola" --to English       # Translate text
  polyglot ocr sign.jpg --to German --speak    # Read, translate and speak an image
  polyglot listen --mic --to French            # Translate speech from the microphone
  polyglot translate --batch phrases.txt       # Translate one phrase per line`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		serveCommand(flags, newRunner),
		translateCommand(flags, newRunner),
		ocrCommand(flags, newRunner),
		speakCommand(newRunner),
		listenCommand(flags, newRunner),
		historyCommand(flags, newRunner),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.polyglot.yaml)")
	cmd.PersistentFlags().StringVar(&flags.ServerURL, "server", "", "polyglot service URL (default http://localhost:8787)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("server.url", cmd.PersistentFlags().Lookup("server"))
}

func run(newRunner RunnerFactory, fn func(r Runner) error) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	return fn(r)
}

func serveCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the translation proxy service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newRunner, func(r Runner) error { return r.Serve(cmd.Context()) })
		},
	}
	cmd.Flags().StringVar(&flags.Addr, "addr", "", "Listen address (default :8787)")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the service key and exit")
	cmd.Flags().BoolVar(&flags.ClearTTSCache, "clear-tts-cache", false, "Remove cached speech audio before serving")
	viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func translateCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text",
		Long: `Translate text given as arguments, from stdin ("-") or from a batch file.

Batch files hold one phrase per line. "phrase = Language" overrides the
target language for that line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newRunner, func(r Runner) error { return r.Translate(cmd.Context(), args) })
		},
	}
	cmd.Flags().StringVarP(&flags.To, "to", "t", "", "Target language (name or code)")
	cmd.Flags().StringVar(&flags.InputType, "input-type", flags.InputType, "Input type: text or image")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate phrases from file (one per line)")
	cmd.Flags().BoolVar(&flags.Speak, "speak", false, "Read the translation aloud")
	cmd.Flags().BoolVar(&flags.Copy, "copy", false, "Copy the translation to the clipboard")
	return cmd
}

func ocrCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Extract text from an image and optionally translate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newRunner, func(r Runner) error { return r.OCR(cmd.Context(), args[0]) })
		},
	}
	cmd.Flags().StringVarP(&flags.To, "to", "t", "", "Translate the extracted text into this language")
	cmd.Flags().BoolVar(&flags.Speak, "speak", false, "Read the translation aloud")
	cmd.Flags().BoolVar(&flags.Copy, "copy", false, "Copy the translation to the clipboard")
	return cmd
}

func speakCommand(newRunner RunnerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "speak [text]",
		Short: "Read text aloud",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newRunner, func(r Runner) error { return r.Speak(cmd.Context(), args) })
		},
	}
}

func listenCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Transcribe speech and optionally translate it",
		Long: `Transcribe speech from the microphone, a PCM16/WAV file or stdin.

Audio must be 24 kHz mono 16-bit. Capture stops after the configured
silence or on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newRunner, func(r Runner) error { return r.Listen(cmd.Context()) })
		},
	}
	cmd.Flags().StringVarP(&flags.Input, "input", "i", flags.Input, "Audio file (.wav or raw PCM16) or - for stdin")
	cmd.Flags().BoolVar(&flags.Mic, "mic", false, "Capture from the default microphone")
	cmd.Flags().StringVarP(&flags.To, "to", "t", "", "Translate the transcript into this language")
	cmd.Flags().StringVarP(&flags.Language, "language", "l", "", "Spoken language as a BCP 47 tag (default from locale)")
	cmd.Flags().BoolVar(&flags.Streaming, "streaming", false, "Translate intermediate transcripts while speaking")
	cmd.Flags().DurationVar(&flags.Silence, "silence", flags.Silence, "Stop after this much silence (default speech.silence_ms)")
	cmd.Flags().StringVar(&flags.Record, "record", "", "Also save the captured audio to this WAV file")
	cmd.Flags().BoolVar(&flags.Speak, "speak", false, "Read the translation aloud")

	viper.BindPFlag("speech.streaming", cmd.Flags().Lookup("streaming"))
	viper.BindPFlag("speech.language", cmd.Flags().Lookup("language"))
	return cmd
}

func historyCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newRunner, func(r Runner) error { return r.History(cmd.Context()) })
		},
	}
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", flags.Limit, "Number of entries to show")
	return cmd
}
