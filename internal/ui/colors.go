package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/nixflix/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

var _ Painter = (*Palette)(nil)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

// Outcome renders s in the color of the outcome: green synced, orange up to date, red failed.
func (p *Palette) Outcome(o models.Outcome, s string) string {
	switch o {
	case models.OutcomeSynced:
		return p.ok.Render(s)
	case models.OutcomeFailed:
		return p.err.Render(s)
	default:
		return p.warn.Render(s)
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// OK, Warn, Error and Title style a line of plain CLI output with the default palette.
func OK(s string) string    { return styles.ok.Render(s) }
func Warn(s string) string  { return styles.warn.Render(s) }
func Error(s string) string { return styles.err.Render(s) }
func Title(s string) string { return styles.title.Render(s) }

// OutcomeLine styles a one-line summary by its outcome.
func OutcomeLine(o models.Outcome, s string) string { return styles.Outcome(o, s) }
