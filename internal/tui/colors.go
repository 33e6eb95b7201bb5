package tui

// Palette shared by the timer, the task browser and the reports
const (
	ColorBorder = "#3A3F55"

	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorHelpText      = "240"

	ColorAccentMain   = "#7C3AED"
	ColorAccentBright = "#A78BFA"

	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)

// Task and score colors
const (
	ColorPriorityUrgent = "#DC2626"
	ColorPriorityHigh   = ColorError
	ColorPriorityMedium = ColorWarning
	ColorPriorityLow    = ColorSecondaryText

	// waiting on an unfinished gating prerequisite
	ColorBlocked = "#F97316"

	ColorScoreHigh = ColorSuccess
	ColorScoreMid  = ColorWarning
	ColorScoreLow  = ColorError
)
