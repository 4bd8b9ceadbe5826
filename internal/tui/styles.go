// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of the dashboard.
type Styles struct {
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Notice  lipgloss.Style
	Input   lipgloss.Style
	Focused lipgloss.Style
	Bar     lipgloss.Style
	Modal   lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns the dashboard's styles.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	border := lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}

	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(primary),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}),
		Notice: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		Bar: lipgloss.NewStyle().Foreground(primary),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primary).
			Padding(1, 2),
		Label: lipgloss.NewStyle().Bold(true),
	}
}
