package feedback

import "testing"

func TestBadgeColor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "green"},
		{70, "green"},
		{69, "yellow"},
		{40, "yellow"},
		{39, "red"},
		{0, "red"},
	}

	for _, tt := range tests {
		if got := BadgeColor(tt.score); got != tt.want {
			t.Errorf("BadgeColor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestBadgeLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Strong"},
		{70, "Strong"},
		{69, "Good Start"},
		{50, "Good Start"},
		{49, "Needs Work"},
		{0, "Needs Work"},
	}

	for _, tt := range tests {
		if got := BadgeLabel(tt.score); got != tt.want {
			t.Errorf("BadgeLabel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestATSGreeting(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{85, "Great Job!"},
		{70, "Great Job!"},
		{69, "Good Start!"},
		{50, "Good Start!"},
		{49, "Needs Work"},
		{10, "Needs Work"},
	}

	for _, tt := range tests {
		if got := ATSGreeting(tt.score); got != tt.want {
			t.Errorf("ATSGreeting(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
