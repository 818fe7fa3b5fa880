package app

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activityStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dividerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	connectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	reconnectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	streamingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Italic(true)
	userLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	agentLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)
	systemLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	toolRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	toolDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))

	panelTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	panelBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	panelLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	panelFaintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)

	gateFrameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
	gateTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	gateChoiceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	gateActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236")).Bold(true)

	toastInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)

	scoreGoodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	scoreMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Bold(true)
	scoreLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)
