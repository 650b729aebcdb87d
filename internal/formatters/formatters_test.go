package formatters

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"resumind/internal/feedback"
	"resumind/internal/types"
)

func sampleReport() feedback.Report {
	return feedback.Report{
		Overall: 72,
		ATS: feedback.ATSView{
			Score: 55,
			Tips: []types.Tip{
				{Type: types.TipGood, Tip: "Standard section headings"},
				{Type: types.TipImprove, Tip: "Add more role keywords"},
			},
		},
		Categories: []feedback.CategoryView{
			{
				ID:    feedback.CategoryContent,
				Title: "Content",
				Score: 80,
				Strengths: []feedback.Item{
					{Text: "Quantified achievements", Explanation: "Numbers back up the claims"},
				},
				Improvements: []feedback.Item{
					{Text: "Tighten the summary"},
				},
			},
			{
				ID:    feedback.CategoryStructure,
				Title: "Structure",
				Score: 35,
			},
		},
	}
}

func TestTextFormatterOutput(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	expected := []string{
		"Overall Score: 72/100 (Strong)",
		"=== ATS COMPATIBILITY ===",
		"Score: 55/100",
		"Good Start!",
		"[+] Standard section headings",
		"[!] Add more role keywords",
		"Content: 80/100 (Strong)",
		"+ Quantified achievements",
		"Numbers back up the claims",
		"! Tighten the summary",
		"Structure: 35/100 (Needs Work)",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("Expected text output to contain '%s', got:\n%s", want, output)
		}
	}
}

func TestMarkdownFormatterOutput(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	expected := []string{
		"# Resume Review",
		"**Overall Score:** 72/100 (Strong)",
		"| Content | 80/100 | Strong |",
		"| Structure | 35/100 | Needs Work |",
		"- **Good:** Standard section headings",
		"- **Improve:** Add more role keywords",
		"### Content: 80/100 (Strong)",
		"- Quantified achievements: Numbers back up the claims",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("Expected markdown output to contain '%s', got:\n%s", want, output)
		}
	}
}

func TestHTMLFormatterOutput(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "html")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	expected := []string{
		"<!DOCTYPE html>",
		"Overall Score: 72/100 (Strong)",
		`class="score badge-green"`,
		"Good Start!",
		`<li class="tip-good">Standard section headings</li>`,
		`<li class="tip-improve">Add more role keywords</li>`,
		`<div class="explanation">Numbers back up the claims</div>`,
		"badge-red",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("Expected HTML output to contain '%s', got:\n%s", want, output)
		}
	}
}

func TestHTMLFormatterEscapesContent(t *testing.T) {
	report := sampleReport()
	report.ATS.Tips = []types.Tip{{Type: types.TipImprove, Tip: "<script>alert(1)</script>"}}

	output, err := GlobalRegistry.Format(report, "html")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if strings.Contains(output, "<script>alert(1)</script>") {
		t.Error("Expected HTML output to escape tip content")
	}
	if !strings.Contains(output, "&lt;script&gt;") {
		t.Error("Expected escaped script tag in HTML output")
	}
}

func TestJSONFormatterRoundTrip(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded feedback.Report
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON output: %v", err)
	}

	if decoded.Overall != 72 {
		t.Errorf("Expected overall score 72, got %d", decoded.Overall)
	}
	if len(decoded.Categories) != 2 {
		t.Errorf("Expected 2 categories, got %d", len(decoded.Categories))
	}
}

func TestJSONFormatterHandlesArbitraryData(t *testing.T) {
	output, err := GlobalRegistry.Format(map[string]int{"used": 3}, "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, `"used": 3`) {
		t.Errorf("Expected JSON output to contain the map entry, got: %s", output)
	}
}

func TestUnknownFormatReturnsError(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleReport(), "xml")
	if err == nil {
		t.Error("Expected error for unknown format, got none")
	}
}

func TestTextFormatterRejectsNonReport(t *testing.T) {
	_, err := GlobalRegistry.Format("just a string", "text")
	if err == nil {
		t.Error("Expected error formatting non-report as text, got none")
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := GlobalRegistry.GetSupportedFormats()

	for _, want := range []string{"json", "text", "markdown", "html"} {
		if !slices.Contains(formats, want) {
			t.Errorf("Expected supported formats to include '%s', got %v", want, formats)
		}
	}
}
