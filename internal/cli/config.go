package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"codeberg.org/snonux/polyglot/internal/languages"
)

// Config is the typed view of the configuration file and environment
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Translation TranslationConfig `mapstructure:"translation"`
	Vision      VisionConfig      `mapstructure:"vision"`
	TTS         TTSConfig         `mapstructure:"tts"`
	Speech      SpeechConfig      `mapstructure:"speech"`
	History     HistoryConfig     `mapstructure:"history"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type TranslationConfig struct {
	Provider   string `mapstructure:"provider"`
	TextModel  string `mapstructure:"text_model"`
	ImageModel string `mapstructure:"image_model"`
	Cache      bool   `mapstructure:"cache"`
}

type VisionConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type TTSConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Voice        string  `mapstructure:"voice"`
	Speed        float64 `mapstructure:"speed"`
	CacheDir     string  `mapstructure:"cache_dir"`
	Instructions string  `mapstructure:"instructions"` // voice direction, gpt-4o-mini-tts only
	ESpeakVoice  string  `mapstructure:"espeak_voice"`
}

// SpeechConfig configures speech capture and the transcription relay
type SpeechConfig struct {
	Language       string `mapstructure:"language"`
	SilenceMS      int    `mapstructure:"silence_ms"`
	Streaming      bool   `mapstructure:"streaming"`
	DebounceMS     int    `mapstructure:"debounce_ms"`
	MinStreamChars int    `mapstructure:"min_stream_chars"`
	Model          string `mapstructure:"model"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type BreakerConfig struct {
	MaxFailures uint32 `mapstructure:"max_failures"`
	OpenSeconds int    `mapstructure:"open_seconds"`
}

// Timeout returns the server request timeout
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Silence returns the silence duration before auto-stop
func (c SpeechConfig) Silence() time.Duration {
	return time.Duration(c.SilenceMS) * time.Millisecond
}

// Debounce returns the intermediate transcript debounce interval
func (c SpeechConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8787")
	v.SetDefault("server.url", "http://localhost:8787")
	v.SetDefault("server.timeout_seconds", 60)

	v.SetDefault("translation.provider", "openai")
	v.SetDefault("translation.text_model", "gpt-4o")
	v.SetDefault("translation.image_model", "gpt-4o-mini")
	v.SetDefault("translation.cache", true)

	v.SetDefault("vision.provider", "openai")
	v.SetDefault("vision.model", "gpt-4o-mini")

	v.SetDefault("tts.provider", "openai")
	v.SetDefault("tts.model", "tts-1")
	v.SetDefault("tts.voice", "nova")
	v.SetDefault("tts.speed", 1.0)
	v.SetDefault("tts.cache_dir", "")
	v.SetDefault("tts.instructions", "")
	v.SetDefault("tts.espeak_voice", "en")

	v.SetDefault("speech.language", languages.DefaultLocale())
	v.SetDefault("speech.silence_ms", 5000)
	v.SetDefault("speech.streaming", false)
	v.SetDefault("speech.debounce_ms", 1500)
	v.SetDefault("speech.min_stream_chars", 10)
	v.SetDefault("speech.model", "gpt-4o-transcribe")

	v.SetDefault("history.path", "")

	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_seconds", 30)
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// A .env file in the working directory is optional
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".polyglot" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".polyglot")
	}

	// Environment variables, e.g. POLYGLOT_SERVER_URL for server.url
	viper.SetEnvPrefix("POLYGLOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// LoadConfig unmarshals the current viper state into a Config
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if config.Speech.SilenceMS <= 0 {
		return nil, fmt.Errorf("speech.silence_ms must be positive, got %d", config.Speech.SilenceMS)
	}
	if config.Server.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("server.timeout_seconds must be positive, got %d", config.Server.TimeoutSeconds)
	}
	return &config, nil
}

// SetupLogging configures the global zerolog logger for the terminal
func SetupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("gemini_key")
}
