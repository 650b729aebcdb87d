package types

import "testing"

func TestFeedbackIsEmpty(t *testing.T) {
	score := 85

	tests := []struct {
		name string
		f    Feedback
		want bool
	}{
		{"zero value", Feedback{}, true},
		{"legacy overall rating", Feedback{OverallRating: 8}, false},
		{"legacy ats score", Feedback{ATSCompatibility: 6}, false},
		{"content sub-score", Feedback{Content: ContentAnalysis{Formatting: 7}}, false},
		{"job fit narrative", Feedback{JobFit: JobFitAnalysis{RelevantExperience: "Go backend work"}}, false},
		{"job fit gaps", Feedback{JobFit: JobFitAnalysis{Gaps: []string{"No Kubernetes"}}}, false},
		{"legacy list", Feedback{Strengths: []string{"Clear layout"}}, false},
		{"structured overall", Feedback{OverallScore: &score}, false},
		{"structured ats block", Feedback{ATS: &ATSFeedback{Score: 60}}, false},
		{"structured category", Feedback{Skills: &CategoryFeedback{Score: 50}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}
