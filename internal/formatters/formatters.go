package formatters

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"resumind/internal/feedback"
	"resumind/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Report", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "Report", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("html", "Report", NewReportHTMLFormatter())

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case feedback.Report:
		return "Report"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter handles text formatting for normalized reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(feedback.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME REVIEW ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/100 (%s)\n\n", report.Overall, feedback.BadgeLabel(report.Overall)))

	output.WriteString("=== SUMMARY ===\n")
	for _, cat := range report.Categories {
		output.WriteString(fmt.Sprintf("%-13s %3d/100  [%s]\n", cat.Title, cat.Score, feedback.BadgeLabel(cat.Score)))
	}
	output.WriteString("\n")

	output.WriteString("=== ATS COMPATIBILITY ===\n")
	output.WriteString(fmt.Sprintf("Score: %d/100\n", report.ATS.Score))
	output.WriteString(feedback.ATSGreeting(report.ATS.Score))
	output.WriteString("\n")
	for _, tip := range report.ATS.Tips {
		marker := "!"
		if tip.Type == types.TipGood {
			marker = "+"
		}
		output.WriteString(fmt.Sprintf("  [%s] %s\n", marker, tip.Tip))
	}
	output.WriteString("\n")

	output.WriteString("=== DETAILS ===\n\n")
	for _, cat := range report.Categories {
		output.WriteString(fmt.Sprintf("%s: %d/100 (%s)\n", cat.Title, cat.Score, feedback.BadgeLabel(cat.Score)))
		if len(cat.Strengths) > 0 {
			output.WriteString("  What works:\n")
			for _, item := range cat.Strengths {
				output.WriteString(fmt.Sprintf("  + %s\n", item.Text))
				if item.Explanation != "" {
					output.WriteString(fmt.Sprintf("    %s\n", item.Explanation))
				}
			}
		}
		if len(cat.Improvements) > 0 {
			output.WriteString("  What to improve:\n")
			for _, item := range cat.Improvements {
				output.WriteString(fmt.Sprintf("  ! %s\n", item.Text))
				if item.Explanation != "" {
					output.WriteString(fmt.Sprintf("    %s\n", item.Explanation))
				}
			}
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "Report"
}

// ReportMarkdownFormatter handles markdown formatting for normalized reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(feedback.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Review\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100 (%s)\n\n", report.Overall, feedback.BadgeLabel(report.Overall)))

	output.WriteString("## Summary\n\n")
	output.WriteString("| Category | Score | Badge |\n")
	output.WriteString("|----------|-------|-------|\n")
	for _, cat := range report.Categories {
		output.WriteString(fmt.Sprintf("| %s | %d/100 | %s |\n", cat.Title, cat.Score, feedback.BadgeLabel(cat.Score)))
	}
	output.WriteString("\n")

	output.WriteString("## ATS Compatibility\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", report.ATS.Score))
	output.WriteString(fmt.Sprintf("%s\n\n", feedback.ATSGreeting(report.ATS.Score)))
	for _, tip := range report.ATS.Tips {
		marker := "Improve"
		if tip.Type == types.TipGood {
			marker = "Good"
		}
		output.WriteString(fmt.Sprintf("- **%s:** %s\n", marker, tip.Tip))
	}
	if len(report.ATS.Tips) > 0 {
		output.WriteString("\n")
	}

	output.WriteString("## Details\n\n")
	for _, cat := range report.Categories {
		output.WriteString(fmt.Sprintf("### %s: %d/100 (%s)\n\n", cat.Title, cat.Score, feedback.BadgeLabel(cat.Score)))
		if len(cat.Strengths) > 0 {
			output.WriteString("**What works:**\n")
			for _, item := range cat.Strengths {
				if item.Explanation != "" {
					output.WriteString(fmt.Sprintf("- %s: %s\n", item.Text, item.Explanation))
				} else {
					output.WriteString(fmt.Sprintf("- %s\n", item.Text))
				}
			}
			output.WriteString("\n")
		}
		if len(cat.Improvements) > 0 {
			output.WriteString("**What to improve:**\n")
			for _, item := range cat.Improvements {
				if item.Explanation != "" {
					output.WriteString(fmt.Sprintf("- %s: %s\n", item.Text, item.Explanation))
				} else {
					output.WriteString(fmt.Sprintf("- %s\n", item.Text))
				}
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "Report"
}

// reportTemplate renders the report as a standalone HTML page. Each
// category is its own details element, so sections expand and collapse
// independently and several can stay open at once.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Resume Review</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; color: #1f2937; }
.score { font-weight: bold; }
.badge-green { color: #16a34a; }
.badge-yellow { color: #ca8a04; }
.badge-red { color: #dc2626; }
.tip-good::before { content: "+ "; color: #16a34a; }
.tip-improve::before { content: "! "; color: #ca8a04; }
.explanation { color: #6b7280; margin-left: 1rem; }
details { border: 1px solid #e5e7eb; border-radius: 0.5rem; padding: 0.5rem 1rem; margin: 0.5rem 0; }
</style>
</head>
<body>
<h1>Resume Review</h1>
<p class="score badge-{{badgeColor .Overall}}">Overall Score: {{.Overall}}/100 ({{badgeLabel .Overall}})</p>

<h2>Summary</h2>
<ul>
{{- range .Categories}}
<li>{{.Title}}: <span class="badge-{{badgeColor .Score}}">{{.Score}}/100 ({{badgeLabel .Score}})</span></li>
{{- end}}
</ul>

<h2>ATS Compatibility</h2>
<p class="score badge-{{badgeColor .ATS.Score}}">{{.ATS.Score}}/100</p>
<p>{{atsGreeting .ATS.Score}}</p>
<ul>
{{- range .ATS.Tips}}
<li class="tip-{{.Type}}">{{.Tip}}</li>
{{- end}}
</ul>

<h2>Details</h2>
{{- range .Categories}}
<details>
<summary>{{.Title}}: <span class="badge-{{badgeColor .Score}}">{{.Score}}/100 ({{badgeLabel .Score}})</span></summary>
{{- if .Strengths}}
<h3>What works</h3>
<ul>
{{- range .Strengths}}
<li class="tip-good">{{.Text}}{{if .Explanation}}<div class="explanation">{{.Explanation}}</div>{{end}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Improvements}}
<h3>What to improve</h3>
<ul>
{{- range .Improvements}}
<li class="tip-improve">{{.Text}}{{if .Explanation}}<div class="explanation">{{.Explanation}}</div>{{end}}</li>
{{- end}}
</ul>
{{- end}}
</details>
{{- end}}
</body>
</html>
`

// ReportHTMLFormatter renders a normalized report as a standalone HTML page
type ReportHTMLFormatter struct {
	tmpl *template.Template
}

// NewReportHTMLFormatter parses the report template once
func NewReportHTMLFormatter() *ReportHTMLFormatter {
	tmpl := template.Must(template.New("report").Funcs(template.FuncMap{
		"badgeColor":  feedback.BadgeColor,
		"badgeLabel":  feedback.BadgeLabel,
		"atsGreeting": feedback.ATSGreeting,
	}).Parse(reportTemplate))
	return &ReportHTMLFormatter{tmpl: tmpl}
}

func (rhf *ReportHTMLFormatter) Format(data any) (string, error) {
	report, ok := data.(feedback.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder
	if err := rhf.tmpl.Execute(&output, report); err != nil {
		return "", err
	}
	return output.String(), nil
}

func (rhf *ReportHTMLFormatter) SupportedType() string {
	return "Report"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
