// Package clipboard copies dialog lines to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard command is installed.
var ErrUnavailable = errors.New("no clipboard command available")

type lookPathFunc func(string) (string, error)

// command picks the clipboard writer for goos.
func command(goos string, lookPath lookPathFunc) ([]string, error) {
	switch goos {
	case "darwin":
		if _, err := lookPath("pbcopy"); err == nil {
			return []string{"pbcopy"}, nil
		}
	case "windows":
		return []string{"cmd", "/c", "clip"}, nil
	default:
		// Wayland first, then the X11 tools.
		candidates := [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
		for _, c := range candidates {
			if _, err := lookPath(c[0]); err == nil {
				return c, nil
			}
		}
	}
	return nil, ErrUnavailable
}

// Write copies text to the system clipboard.
func Write(text string) error {
	argv, err := command(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return nil
}

// Available checks if clipboard functionality is available.
func Available() bool {
	_, err := command(runtime.GOOS, exec.LookPath)
	return err == nil
}

// FormatLine renders a dialog line for pasting: "[node] speaker: text",
// with the paraphrase on a second line when present.
func FormatLine(node int32, speaker, spoken, paraphrase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s: %s", node, speaker, spoken)
	if paraphrase != "" {
		fmt.Fprintf(&b, "\n  (%s)", paraphrase)
	}
	return b.String()
}
