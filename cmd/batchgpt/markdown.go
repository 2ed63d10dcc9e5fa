package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrapWidth = 80

// wrapWidth is the width of w when it is a terminal, or defaultWrapWidth.
func wrapWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWrapWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWrapWidth
	}
	return width
}

// markdownFormatter renders choice content as markdown sized for w.
func markdownFormatter(w io.Writer) func(string) (string, error) {
	return func(s string) (string, error) {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapWidth(w)),
			glamour.WithPreservedNewLines(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to create markdown renderer: %w", err)
		}

		out, err := r.Render(s)
		if err != nil {
			return "", fmt.Errorf("failed to render markdown: %w", err)
		}
		return strings.TrimSpace(out), nil
	}
}
