package utils

import "fmt"

// FormatClock renders seconds as m:ss. Negative values read as 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
