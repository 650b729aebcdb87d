package export

import (
	"encoding/json"
	"time"

	"resumind/internal/errors"
	"resumind/internal/types"
)

// Snapshot is the portable JSON form of a review. Field names are part
// of the interchange contract and must stay stable.
type Snapshot struct {
	OverallRating          int                   `json:"overall_rating"`
	ATSCompatibility       int                   `json:"ats_compatibility"`
	ContentAnalysis        types.ContentAnalysis `json:"content_analysis"`
	Strengths              []string              `json:"strengths"`
	Weaknesses             []string              `json:"weaknesses"`
	ATSIssues              []string              `json:"ats_issues"`
	MissingElements        []string              `json:"missing_elements"`
	ImprovementSuggestions []string              `json:"improvement_suggestions"`
	Recommendations        []string              `json:"recommendations"`
	JobFitAnalysis         types.JobFitAnalysis  `json:"job_fit_analysis"`
	GeneratedAt            time.Time             `json:"generated_at"`
}

// NewSnapshot builds a snapshot from raw feedback, stamping the export
// time. Nil lists become empty ones so the JSON shape is stable.
func NewSnapshot(f types.Feedback, generatedAt time.Time) Snapshot {
	s := Snapshot{
		OverallRating:          f.OverallRating,
		ATSCompatibility:       f.ATSCompatibility,
		ContentAnalysis:        f.Content,
		Strengths:              orEmpty(f.Strengths),
		Weaknesses:             orEmpty(f.Weaknesses),
		ATSIssues:              orEmpty(f.ATSIssues),
		MissingElements:        orEmpty(f.MissingElements),
		ImprovementSuggestions: orEmpty(f.ImprovementSuggestions),
		Recommendations:        orEmpty(f.Recommendations),
		JobFitAnalysis:         f.JobFit,
		GeneratedAt:            generatedAt.UTC().Truncate(time.Second),
	}
	s.JobFitAnalysis.Gaps = orEmpty(s.JobFitAnalysis.Gaps)
	return s
}

// ExportJSON marshals the snapshot with stable indentation
func ExportJSON(f types.Feedback, generatedAt time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(NewSnapshot(f, generatedAt), "", "  ")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
			"failed to marshal feedback snapshot", err)
	}
	return data, nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
