package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"resumind/internal/errors"
	"resumind/internal/feedback"
	"resumind/internal/types"
)

// Page geometry in millimeters (A4 portrait)
const (
	pageMargin    = 20.0
	contentStartY = 35.0
	breakMarginY  = 25.0
	resetY        = 30.0
	lineHeight    = 5.0
	headerBandH   = 28.0
	a4Height      = 297.0
)

type rgb struct{ r, g, b int }

var (
	colorHeader   = rgb{31, 41, 55}
	colorAccent   = rgb{79, 70, 229}
	colorBody     = rgb{31, 41, 55}
	colorMuted    = rgb{107, 114, 128}
	colorGood     = rgb{22, 163, 74}
	colorImprove  = rgb{202, 138, 4}
	colorHeadline = rgb{255, 255, 255}
)

// PDFExporter renders a review into a printable report document
type PDFExporter struct {
	normalizer *feedback.Normalizer
}

// NewPDFExporter creates an exporter that normalizes feedback with the
// given normalizer. Nil selects the default rules.
func NewPDFExporter(n *feedback.Normalizer) *PDFExporter {
	if n == nil {
		n = feedback.NewNormalizer(nil)
	}
	return &PDFExporter{normalizer: n}
}

type pdfWriter struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

// Export builds the full report PDF for a record. Any document build
// error fails the whole export.
func (e *PDFExporter) Export(rec *types.ResumeRecord, generatedAt time.Time) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, 0)
	doc.AliasNbPages("")

	w := &pdfWriter{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}

	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
		doc.CellFormat(0, 10,
			w.tr(fmt.Sprintf("Confidential Report • Page %d of {nb}", doc.PageNo())),
			"", 0, "C", false, 0, "")
	})

	doc.AddPage()

	report := e.normalizer.Normalize(rec.Feedback)

	w.header(rec, generatedAt)
	w.executiveSummary(report)
	w.categorySections(report, rec.Feedback)
	w.flatSections(rec.Feedback)
	w.jobFit(rec.Feedback.JobFit)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
			"failed to build report PDF", err)
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) header(rec *types.ResumeRecord, generatedAt time.Time) {
	doc := w.doc

	doc.SetFillColor(colorHeader.r, colorHeader.g, colorHeader.b)
	doc.Rect(0, 0, 210, headerBandH, "F")

	doc.SetTextColor(colorHeadline.r, colorHeadline.g, colorHeadline.b)
	doc.SetFont("Helvetica", "B", 18)
	doc.SetXY(pageMargin, 8)
	doc.CellFormat(0, 8, w.tr("Resume Review Report"), "", 1, "L", false, 0, "")

	context := "General review"
	if rec.JobTitle != "" && rec.CompanyName != "" {
		context = fmt.Sprintf("%s at %s", rec.JobTitle, rec.CompanyName)
	} else if rec.JobTitle != "" {
		context = rec.JobTitle
	} else if rec.CompanyName != "" {
		context = rec.CompanyName
	}

	doc.SetFont("Helvetica", "", 10)
	doc.SetX(pageMargin)
	doc.CellFormat(0, 5,
		w.tr(fmt.Sprintf("%s  |  Generated %s", context, generatedAt.Format("January 2, 2006"))),
		"", 1, "L", false, 0, "")

	doc.SetY(contentStartY)
}

func (w *pdfWriter) checkPage(needed float64) {
	if w.doc.GetY()+needed > a4Height-breakMarginY {
		w.doc.AddPage()
		w.doc.SetY(resetY)
	}
}

func (w *pdfWriter) sectionTitle(title string) {
	w.checkPage(14)
	doc := w.doc
	doc.SetFont("Helvetica", "B", 13)
	doc.SetTextColor(colorAccent.r, colorAccent.g, colorAccent.b)
	doc.SetX(pageMargin)
	doc.CellFormat(0, 8, w.tr(title), "", 1, "L", false, 0, "")
	doc.Ln(1)
}

func (w *pdfWriter) bodyText(text string) {
	w.checkPage(lineHeight * 2)
	doc := w.doc
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
	doc.SetX(pageMargin)
	doc.MultiCell(0, lineHeight, w.tr(text), "", "L", false)
}

func (w *pdfWriter) bullet(title, explanation string, positive bool) {
	w.checkPage(lineHeight * 3)
	doc := w.doc

	marker := colorImprove
	if positive {
		marker = colorGood
	}
	doc.SetFont("Helvetica", "B", 10)
	doc.SetTextColor(marker.r, marker.g, marker.b)
	doc.SetX(pageMargin)
	doc.MultiCell(0, lineHeight, w.tr("- "+title), "", "L", false)

	if explanation != "" {
		doc.SetFont("Helvetica", "", 9)
		doc.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
		doc.SetX(pageMargin + 6)
		doc.MultiCell(175-pageMargin, lineHeight-0.5, w.tr(explanation), "", "L", false)
	}
	doc.Ln(1)
}

func (w *pdfWriter) listSection(title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	w.sectionTitle(title)
	for _, entry := range entries {
		w.bullet(entry, "", false)
	}
	w.doc.Ln(2)
}

func (w *pdfWriter) executiveSummary(report feedback.Report) {
	w.sectionTitle("Executive Summary")
	w.bodyText(fmt.Sprintf("Overall Score: %d/100 (%s)", report.Overall, feedback.BadgeLabel(report.Overall)))
	w.bodyText(fmt.Sprintf("ATS Compatibility: %d/100 (%s)", report.ATS.Score, feedback.ATSGreeting(report.ATS.Score)))
	w.doc.Ln(2)
}

func (w *pdfWriter) categorySections(report feedback.Report, raw types.Feedback) {
	w.sectionTitle("Detailed Category Analysis")

	for _, cat := range report.Categories {
		w.checkPage(lineHeight * 4)
		doc := w.doc

		doc.SetFont("Helvetica", "B", 11)
		doc.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
		doc.SetX(pageMargin)
		doc.CellFormat(0, 6,
			w.tr(fmt.Sprintf("%s: %d/100 (%s)", cat.Title, cat.Score, feedback.BadgeLabel(cat.Score))),
			"", 1, "L", false, 0, "")

		if cat.ID == feedback.CategoryContent && raw.Content != (types.ContentAnalysis{}) {
			w.bodyText(fmt.Sprintf("Experience Relevance: %d/100", feedback.ScaleTo100(raw.Content.ExperienceRelevance)))
			w.bodyText(fmt.Sprintf("Achievements Highlighted: %d/100", feedback.ScaleTo100(raw.Content.Achievements)))
			w.bodyText(fmt.Sprintf("Education Presentation: %d/100", feedback.ScaleTo100(raw.Content.Education)))
		}

		for _, item := range cat.Strengths {
			w.bullet(item.Text, item.Explanation, true)
		}
		for _, item := range cat.Improvements {
			w.bullet(item.Text, item.Explanation, false)
		}
		doc.Ln(2)
	}

	if len(report.ATS.Tips) > 0 {
		w.sectionTitle("ATS Feedback")
		for _, tip := range report.ATS.Tips {
			w.bullet(tip.Tip, tip.Explanation, tip.Type == types.TipGood)
		}
		w.doc.Ln(2)
	}
}

func (w *pdfWriter) flatSections(f types.Feedback) {
	w.listSection("Key Strengths", f.Strengths)
	w.listSection("Areas for Improvement", f.Weaknesses)
	w.listSection("ATS Issues", f.ATSIssues)
	w.listSection("Missing Elements", f.MissingElements)
	w.listSection("Improvement Suggestions", f.ImprovementSuggestions)
	w.listSection("Recommendations", f.Recommendations)
}

func (w *pdfWriter) jobFit(fit types.JobFitAnalysis) {
	if fit.MatchScore == 0 && fit.RelevantExperience == "" && len(fit.Gaps) == 0 {
		return
	}

	w.sectionTitle("Job Fit Analysis")
	w.bodyText(fmt.Sprintf("Match Score: %d/100", feedback.ScaleTo100(fit.MatchScore)))
	if fit.RelevantExperience != "" {
		w.bodyText(fit.RelevantExperience)
	}
	for _, gap := range fit.Gaps {
		w.bullet(gap, "", false)
	}
}
