package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"resumind/internal/types"
)

func sampleFeedback() types.Feedback {
	return types.Feedback{
		OverallRating:    8,
		ATSCompatibility: 7,
		Content: types.ContentAnalysis{
			TechnicalSkills:     7,
			ExperienceRelevance: 8,
			Achievements:        6,
			Education:           9,
			Formatting:          7,
		},
		Strengths:              []string{"Strong work experience"},
		Weaknesses:             []string{"Dense layout"},
		ATSIssues:              []string{"Tables confuse parsers"},
		MissingElements:        []string{"Missing certifications"},
		ImprovementSuggestions: []string{"Quantify achievements"},
		Recommendations:        []string{"Add a skills summary"},
		JobFit: types.JobFitAnalysis{
			MatchScore:         7,
			RelevantExperience: "Five years of Go backend work closely matches the role",
			Gaps:               []string{"No Kubernetes exposure"},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	generatedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	data, err := ExportJSON(sampleFeedback(), generatedAt)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}

	want := NewSnapshot(sampleFeedback(), generatedAt)
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("Round trip changed the snapshot:\ngot:  %+v\nwant: %+v", decoded, want)
	}
}

func TestSnapshotFieldNames(t *testing.T) {
	data, err := ExportJSON(types.Feedback{}, time.Now())
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	wantFields := []string{
		"overall_rating",
		"ats_compatibility",
		"content_analysis",
		"strengths",
		"weaknesses",
		"ats_issues",
		"missing_elements",
		"improvement_suggestions",
		"recommendations",
		"job_fit_analysis",
		"generated_at",
	}
	for _, field := range wantFields {
		if _, ok := raw[field]; !ok {
			t.Errorf("Snapshot is missing field %q", field)
		}
	}
	if len(raw) != len(wantFields) {
		t.Errorf("Expected %d fields, got %d", len(wantFields), len(raw))
	}

	var content map[string]json.RawMessage
	if err := json.Unmarshal(raw["content_analysis"], &content); err != nil {
		t.Fatalf("Failed to unmarshal content_analysis: %v", err)
	}
	for _, field := range []string{"technical_skills", "experience_relevance", "achievements", "education", "formatting"} {
		if _, ok := content[field]; !ok {
			t.Errorf("content_analysis is missing field %q", field)
		}
	}

	var jobFit map[string]json.RawMessage
	if err := json.Unmarshal(raw["job_fit_analysis"], &jobFit); err != nil {
		t.Fatalf("Failed to unmarshal job_fit_analysis: %v", err)
	}
	for _, field := range []string{"match_score", "relevant_experience", "gaps"} {
		if _, ok := jobFit[field]; !ok {
			t.Errorf("job_fit_analysis is missing field %q", field)
		}
	}
}

func TestSnapshotEmptyListsStayArrays(t *testing.T) {
	data, err := ExportJSON(types.Feedback{}, time.Now())
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	if bytes.Contains(data, []byte(`"strengths": null`)) {
		t.Error("Expected empty array for strengths, got null")
	}
	if !bytes.Contains(data, []byte(`"strengths": []`)) {
		t.Error("Expected strengths to serialize as an empty array")
	}
}

func TestExportPDF(t *testing.T) {
	exporter := NewPDFExporter(nil)

	rec := &types.ResumeRecord{
		ID:          "test",
		CompanyName: "Acme",
		JobTitle:    "Backend Engineer",
		Feedback:    sampleFeedback(),
	}

	data, err := exporter.Export(rec, time.Now())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Expected output to start with the PDF magic bytes")
	}
	if len(data) < 1000 {
		t.Errorf("Expected a substantial document, got %d bytes", len(data))
	}
}

func TestExportPDFEmptyFeedback(t *testing.T) {
	exporter := NewPDFExporter(nil)

	rec := &types.ResumeRecord{ID: "empty"}

	data, err := exporter.Export(rec, time.Now())
	if err != nil {
		t.Fatalf("Export of empty feedback failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Expected output to start with the PDF magic bytes")
	}
}
