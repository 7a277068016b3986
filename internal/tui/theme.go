package tui

import "github.com/charmbracelet/lipgloss"

// Theme centralizes every lipgloss style used by the directory views.
type Theme struct {
	Title        lipgloss.Style
	Header       lipgloss.Style
	SearchPrompt lipgloss.Style
	Selected     lipgloss.Style
	Normal       lipgloss.Style
	Dim          lipgloss.Style
	AdminBadge   lipgloss.Style
	MemberBadge  lipgloss.Style
	SelfMarker   lipgloss.Style
	Error        lipgloss.Style
	Notice       lipgloss.Style
	ModalBox     lipgloss.Style
	ModalTitle   lipgloss.Style
	FieldLabel   lipgloss.Style
	Help         lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Header:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		SearchPrompt: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Selected:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		Normal:       lipgloss.NewStyle(),
		Dim:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		AdminBadge:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		MemberBadge:  lipgloss.NewStyle().Foreground(lipgloss.Color("72")),
		SelfMarker:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Notice:       lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		ModalBox:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
		ModalTitle:   lipgloss.NewStyle().Bold(true).Underline(true),
		FieldLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18),
		Help:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
