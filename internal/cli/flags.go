package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile   string
	ServerURL string
	Verbose   bool

	// serve
	Addr          string
	ListModels    bool
	ClearTTSCache bool

	// translate, ocr, listen
	To        string
	InputType string
	BatchFile string
	Speak     bool
	Copy      bool

	// listen
	Input     string
	Mic       bool
	Streaming bool
	Silence   time.Duration // zero means speech.silence_ms
	Language  string
	Record    string

	// history
	Limit int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		InputType: "text",
		Input:     "-",
		Limit:     20,
	}
}
