// Package ui holds the shared visual language of the quickbar panel:
// the color palette, button and tab styles, overlay splicing, and the
// status-bar log handler.
package ui

import "github.com/charmbracelet/lipgloss"

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired with semantic accents
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors
	ColorBg          = lipgloss.Color("#282A36")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	// Accent colors
	ColorPrimary = lipgloss.Color("#BD93F9")
	ColorInfo    = lipgloss.Color("#8BE9FD")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorDanger  = lipgloss.Color("#FF5555")

	// Toggle state colors (status effects, movement modes)
	ColorToggledBg = lipgloss.Color("#1A3D2A")
	ColorOverlayBg = lipgloss.Color("#1E1F29")
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	// TitleStyle renders the panel title with the bound token name.
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// TabStyle renders an inactive tab label.
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext).
			Padding(0, 1)

	// ActiveTabStyle renders the active tab label.
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBgHighlight).
			Bold(true).
			Padding(0, 1)

	// SectionTitleStyle renders a section header inside a tab.
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(ColorInfo).
				Bold(true)

	// ButtonStyle renders an actionable row button.
	ButtonStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBgHighlight).
			Padding(0, 1)

	// DisabledButtonStyle renders a button that cannot be used.
	DisabledButtonStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Background(ColorBg).
				Padding(0, 1)

	// ToggledButtonStyle renders an active toggle (status on, current
	// movement mode).
	ToggledButtonStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Background(ColorToggledBg).
				Padding(0, 1)

	// FavoritedButtonStyle marks favorited rows.
	FavoritedButtonStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Background(ColorBgHighlight).
				Padding(0, 1)

	// DraggedButtonStyle renders the floating row during a drag.
	DraggedButtonStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorPrimary).
				Padding(0, 1)

	// PlaceholderStyle renders the drop placeholder during a drag.
	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Padding(0, 1)

	// StatusBarStyle renders the bottom status/help line.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext)

	// WarnStyle and ErrorStyle color status-bar notifications.
	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// ModStyle renders a modifier string next to a check button.
	ModStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// OverlayTextStyle renders overlay body text.
	OverlayTextStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorOverlayBg)

	// OverlayTitleStyle renders overlay titles.
	OverlayTitleStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorOverlayBg).
				Bold(true)

	// OverlayTagStyle renders boolean tags on the hover card.
	OverlayTagStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Background(ColorOverlayBg)

	// OverlaySelectedStyle renders the highlighted popover action.
	OverlaySelectedStyle = lipgloss.NewStyle().
				Foreground(ColorBg).
				Background(ColorPrimary)

	// OverlayDisabledStyle renders a popover action that cannot be
	// chosen under current flags.
	OverlayDisabledStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Background(ColorOverlayBg)
)

// OverlayBackground is the base style overlays pad with.
var OverlayBackground = lipgloss.NewStyle().Background(ColorOverlayBg)
