package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	blockMark = "[--]"
	runMark   = "[..]"
	pending   = "[  ]"
)

// styles holds the styles of one output. The zero value renders plain text.
type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	warning lipgloss.Style
	dim     lipgloss.Style
	active  lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, section: plain, ok: plain, failed: plain, warning: plain, dim: plain, active: plain}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),
		section: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue),
		ok:      lipgloss.NewStyle().Foreground(colorGreen),
		failed:  lipgloss.NewStyle().Foreground(colorRed),
		warning: lipgloss.NewStyle().Foreground(colorYellow),
		dim:     lipgloss.NewStyle().Foreground(colorDim),
		active: lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true),
	}
}
