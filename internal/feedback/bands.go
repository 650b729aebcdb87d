package feedback

// BadgeColor maps a 0-100 score to its badge color band
func BadgeColor(score int) string {
	switch {
	case score > 69:
		return "green"
	case score > 39:
		return "yellow"
	default:
		return "red"
	}
}

// BadgeLabel maps a 0-100 score to its summary badge text
func BadgeLabel(score int) string {
	switch {
	case score > 69:
		return "Strong"
	case score > 49:
		return "Good Start"
	default:
		return "Needs Work"
	}
}

// ATSGreeting maps an ATS score to the headline shown above its tips
func ATSGreeting(score int) string {
	switch {
	case score > 69:
		return "Great Job!"
	case score > 49:
		return "Good Start!"
	default:
		return "Needs Work"
	}
}
