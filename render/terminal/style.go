package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Speaker colors: blue for student, emerald for ai, slate for unknown.
	colorStudent = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorAI      = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}
	colorUnknown = lipgloss.AdaptiveColor{Light: "#64748b", Dark: "#94a3b8"}

	// UI colors.
	colorBright = lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#d97706", Dark: "#fbbf24"} // amber
	colorError  = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"} // red
)

var (
	styleStudent = lipgloss.NewStyle().Foreground(colorStudent)
	styleAI      = lipgloss.NewStyle().Foreground(colorAI)
	styleUnknown = lipgloss.NewStyle().Foreground(colorUnknown)

	styleTitle  = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleMeta   = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorDim).Bold(true)

	styleStat      = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleStatLabel = lipgloss.NewStyle().Foreground(colorDim)

	styleOK    = lipgloss.NewStyle().Foreground(colorAI).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleNote  = lipgloss.NewStyle().Foreground(colorDim).Italic(true)

	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
)
