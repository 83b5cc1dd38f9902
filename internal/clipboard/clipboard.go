// Package clipboard writes text to the system clipboard through the
// platform's command line tools.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard tool is installed
var ErrUnavailable = errors.New("no clipboard tool available")

type tool struct {
	name string
	args []string
}

func candidates(goos string) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "windows":
		return []tool{{name: "clip"}}
	default:
		return []tool{
			{name: "wl-copy"},
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	}
}

// Writer writes to the clipboard using the first available tool
type Writer struct {
	lookPath func(string) (string, error)
	command  func(name string, args ...string) *exec.Cmd
	goos     string
}

// New returns a clipboard writer for the running platform
func New() *Writer {
	return &Writer{lookPath: exec.LookPath, command: exec.Command, goos: runtime.GOOS}
}

// Write replaces the clipboard contents with text
func (w *Writer) Write(text string) error {
	for _, t := range candidates(w.goos) {
		path, err := w.lookPath(t.name)
		if err != nil {
			continue
		}

		cmd := w.command(path, t.args...)
		cmd.Stdin = strings.NewReader(text)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%s failed: %w: %s", t.name, err, strings.TrimSpace(string(out)))
		}
		return nil
	}
	return ErrUnavailable
}

// Write writes text using the default writer
func Write(text string) error {
	return New().Write(text)
}
