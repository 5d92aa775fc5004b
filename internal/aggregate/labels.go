package aggregate

import "NewsroomStats/internal/domain"

// LevelLabel renders a level code for tables.
func LevelLabel(level string) string {
	if level == domain.SelfProducedLevel {
		return "자체"
	}
	return "비자체"
}

// RatioClass buckets a self ratio for highlighting: below 30 is low, 30-39 mid,
// 40 and above high.
func RatioClass(ratio int) string {
	switch {
	case ratio >= 40:
		return "high"
	case ratio >= 30:
		return "mid"
	default:
		return "low"
	}
}
