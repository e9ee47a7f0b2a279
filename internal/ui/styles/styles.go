package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

var (
	Title     = lipgloss.NewStyle().Bold(true)
	TabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DCE13"))
	Header    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	Footer    = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	Box       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	Danger    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Warn      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	Good      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7AF"))
	Faint     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

func Phase(p domain.PodPhase) lipgloss.Style {
	switch p {
	case domain.PodRunning, domain.PodSucceeded:
		return Good
	case domain.PodPending:
		return Warn
	case domain.PodFailed:
		return Danger
	default:
		return Faint
	}
}

func Severity(s domain.Severity) lipgloss.Style {
	if s == domain.SeverityError {
		return Danger
	}
	return Warn
}

// Replicas colours "ready/desired" by how far ready lags behind.
func Replicas(ready, desired int32) lipgloss.Style {
	switch {
	case ready >= desired:
		return Good
	case ready == 0:
		return Danger
	default:
		return Warn
	}
}
