package response

import "fmt"

// FormatDuration renders a worked duration in seconds as "2h 05m".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}
	hours := seconds / 3600
	mins := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
