package types

import "time"

// TipType classifies a structured feedback tip
type TipType string

const (
	TipGood    TipType = "good"
	TipImprove TipType = "improve"
)

// Tip represents a single structured feedback item from the analyzer
type Tip struct {
	Type        TipType `json:"type"`
	Tip         string  `json:"tip"`
	Explanation string  `json:"explanation,omitempty"`
}

// CategoryFeedback represents one scored category in the structured schema (score 0-100)
type CategoryFeedback struct {
	Score int   `json:"score"`
	Tips  []Tip `json:"tips"`
}

// ATSFeedback represents the applicant-tracking compatibility block of the structured schema
type ATSFeedback struct {
	Score int   `json:"score"`
	Tips  []Tip `json:"tips"`
}

// ContentAnalysis holds the legacy per-aspect sub-scores (each 0-10)
type ContentAnalysis struct {
	TechnicalSkills     int `json:"technical_skills"`
	ExperienceRelevance int `json:"experience_relevance"`
	Achievements        int `json:"achievements"`
	Education           int `json:"education"`
	Formatting          int `json:"formatting"`
}

// JobFitAnalysis describes how well the resume matches the job description (match_score 0-10)
type JobFitAnalysis struct {
	MatchScore         int      `json:"match_score"`
	RelevantExperience string   `json:"relevant_experience"`
	Gaps               []string `json:"gaps"`
}

// Feedback is the raw analyzer output. It carries two generations of
// schema side by side: the flat legacy fields (0-10 scores, plain string
// lists) and the optional structured blocks (0-100 scores with typed
// tips). Consumers normalize through the feedback package instead of
// reading the raw fields directly.
type Feedback struct {
	// Legacy flat schema
	OverallRating          int             `json:"overall_rating"`
	ATSCompatibility       int             `json:"ats_compatibility"`
	Content                ContentAnalysis `json:"content_analysis"`
	Strengths              []string        `json:"strengths"`
	Weaknesses             []string        `json:"weaknesses"`
	ATSIssues              []string        `json:"ats_issues"`
	MissingElements        []string        `json:"missing_elements"`
	ImprovementSuggestions []string        `json:"improvement_suggestions"`
	Recommendations        []string        `json:"recommendations"`
	JobFit                 JobFitAnalysis  `json:"job_fit_analysis"`

	// Structured schema; nil blocks mean the analyzer emitted only the legacy fields
	OverallScore *int              `json:"overallScore,omitempty"`
	ATS          *ATSFeedback      `json:"ATS,omitempty"`
	ToneAndStyle *CategoryFeedback `json:"toneAndStyle,omitempty"`
	ContentBlock *CategoryFeedback `json:"content,omitempty"`
	Structure    *CategoryFeedback `json:"structure,omitempty"`
	Skills       *CategoryFeedback `json:"skills,omitempty"`
}

// IsEmpty reports whether the feedback carries no scores or findings in
// either schema generation, which is what a decode of unrelated JSON
// produces.
func (f Feedback) IsEmpty() bool {
	if f.OverallRating != 0 || f.ATSCompatibility != 0 {
		return false
	}
	if f.Content != (ContentAnalysis{}) || f.JobFit.MatchScore != 0 {
		return false
	}
	if f.JobFit.RelevantExperience != "" || len(f.JobFit.Gaps) > 0 {
		return false
	}
	if len(f.Strengths) > 0 || len(f.Weaknesses) > 0 || len(f.ATSIssues) > 0 ||
		len(f.MissingElements) > 0 || len(f.ImprovementSuggestions) > 0 ||
		len(f.Recommendations) > 0 {
		return false
	}
	return f.OverallScore == nil && f.ATS == nil && f.ToneAndStyle == nil &&
		f.ContentBlock == nil && f.Structure == nil && f.Skills == nil
}

// ResumeRecord is one stored review: the uploaded resume, its rasterized
// page images, the job context it was reviewed against, and the feedback
type ResumeRecord struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"company_name,omitempty"`
	JobTitle       string    `json:"job_title,omitempty"`
	JobDescription string    `json:"job_description,omitempty"`
	ResumePath     string    `json:"resume_path"`
	ImagePaths     []string  `json:"image_paths"`
	Feedback       Feedback  `json:"feedback"`
	CreatedAt      time.Time `json:"created_at"`
}

// UsageInfo reports the caller's monthly analysis allowance
type UsageInfo struct {
	Allowance int `json:"allowance"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// TokenUsage captures model token consumption for one request
type TokenUsage struct {
	InputTokens  int32 `json:"inputTokens"`
	OutputTokens int32 `json:"outputTokens"`
	TotalTokens  int32 `json:"totalTokens"`
}

// AnalyzeResumeInput represents the input for a resume review
type AnalyzeResumeInput struct {
	Resume         []byte `json:"-"`
	FileName       string `json:"fileName"`
	CompanyName    string `json:"companyName,omitempty"`
	JobTitle       string `json:"jobTitle,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
}

// AnalyzeResumeOutput pairs analyzer feedback with token accounting
type AnalyzeResumeOutput struct {
	Feedback   Feedback    `json:"feedback"`
	TokenUsage *TokenUsage `json:"tokenUsage,omitempty"`
}

// PageImage is one rasterized resume page
type PageImage struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	PNG    []byte `json:"-"`
}
