package domain

import "strings"

// Keyword tiers checked by CorrectSeverity, highest first. Matching is
// case-insensitive substring containment without word boundaries.
var (
	HighSeverityKeywords = []string{
		"massive", "strong", "severe", "widespread", "fatalities", "death", "dead",
		"collapsed", "emergency", "evacuation", "major damage", "submerged",
		"catastrophic", "destroyed", "rescue needed", "people trapped", "major loss",
		"major", "critical", "intense", "urgent", "extreme",
	}
	MediumSeverityKeywords = []string{
		"moderate", "partial", "significant", "injured", "hospitalized", "stranded",
		"affected", "disruption", "traffic jam", "blocked", "power outage", "damaged",
		"relief", "alert", "warning", "rising water", "heavy rain", "waterlogging",
	}
	LowSeverityKeywords = []string{
		"minor", "small", "light", "no damage", "no casualties", "no injury", "safe",
		"controlled", "drill", "test", "false alarm", "rumor", "subsiding", "normal",
		"minimal", "negligible", "tremor",
	}
)

// CorrectSeverity applies the keyword hierarchy to text. The first tier with a
// match decides the label regardless of mlLabel; with no match mlLabel is returned.
func CorrectSeverity(text, mlLabel string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, HighSeverityKeywords):
		return SeverityHigh
	case containsAny(lower, MediumSeverityKeywords):
		return SeverityMedium
	case containsAny(lower, LowSeverityKeywords):
		return SeverityLow
	default:
		return mlLabel
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
