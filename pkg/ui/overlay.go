package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// SpliceOverlay replaces a rectangular region of a rendered view with
// overlay lines anchored at (anchorX, anchorY) in screen coordinates.
// Truncation is ANSI-aware so escape sequences on either side of the
// overlay survive.
func SpliceOverlay(view string, overlayLines []string, anchorX, anchorY int) string {
	if len(overlayLines) == 0 {
		return view
	}

	viewLines := strings.Split(view, "\n")
	overlayWidth := ansi.StringWidth(overlayLines[0])

	for i, overlayLine := range overlayLines {
		y := anchorY + i
		if y < 0 || y >= len(viewLines) {
			continue
		}

		line := viewLines[y]
		lineWidth := ansi.StringWidth(line)

		var out strings.Builder
		if anchorX > 0 {
			out.WriteString(ansi.Truncate(line, anchorX, ""))
		}
		out.WriteString("\x1b[0m")
		out.WriteString(overlayLine)
		out.WriteString("\x1b[0m")

		suffixStart := anchorX + overlayWidth
		if suffixStart < lineWidth {
			out.WriteString(ansi.TruncateLeft(line, suffixStart, ""))
		}

		viewLines[y] = out.String()
	}

	return strings.Join(viewLines, "\n")
}

// ClampAnchor shifts an overlay anchor so a box of the given size stays
// inside a width x height viewport.
func ClampAnchor(anchorX, anchorY, boxWidth, boxHeight, width, height int) (int, int) {
	if anchorX+boxWidth > width {
		anchorX = width - boxWidth
	}
	if anchorX < 0 {
		anchorX = 0
	}
	if anchorY+boxHeight > height {
		anchorY = height - boxHeight
	}
	if anchorY < 0 {
		anchorY = 0
	}
	return anchorX, anchorY
}

// PadOverlayLine pads styled content to the overlay's inner width with
// background-colored spaces, one padding column on each side.
func PadOverlayLine(styledContent string, innerWidth int, background lipgloss.Style) string {
	contentWidth := ansi.StringWidth(styledContent)
	rightPad := innerWidth - contentWidth
	if rightPad < 0 {
		rightPad = 0
	}
	return background.Render(" ") + styledContent + background.Render(strings.Repeat(" ", rightPad+1))
}

// ExtractExcerpt returns up to maxLines non-blank lines of body, each
// truncated to maxWidth with an ellipsis.
func ExtractExcerpt(body string, maxWidth, maxLines int) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if ansi.StringWidth(trimmed) > maxWidth {
			trimmed = ansi.Truncate(trimmed, maxWidth-1, "…")
		}
		out = append(out, trimmed)
		if len(out) >= maxLines {
			break
		}
	}
	return out
}

// TruncateRunes hard-caps a string at limit runes, appending an
// ellipsis when truncation happened.
func TruncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
