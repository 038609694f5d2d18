package views

import (
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const dateLayout = "Jan 2, 2006 3:04 PM"

type fieldSetter interface {
	Set(name, value string) error
}

// setField copies a widget value into the form's draft; a rejected value is
// logged and the draft keeps its previous value
func setField(logger *log.Logger, s fieldSetter, name, value string) {
	if err := s.Set(name, value); err != nil {
		logger.Printf("Error setting %s: %v", name, err)
	}
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// truncate cuts s to width cells, ending with an ellipsis when cut
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return xansi.Truncate(s, width, "…")
}

// firstLine returns the first non-empty line of s
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

var (
	mdRendererMu sync.Mutex
	// keyed by style and wrap width; WithAutoStyle may block on terminal queries
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders a task description in the given glamour style,
// falling back to the raw text
func renderMarkdown(md, style string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// markdownStyle resolves the configured style name; empty or "auto" follows
// the terminal background
func markdownStyle(configured string) string {
	switch s := strings.ToLower(strings.TrimSpace(configured)); s {
	case "light", "dark", "notty", "ascii", "dracula", "pink", "tokyo-night":
		return s
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
