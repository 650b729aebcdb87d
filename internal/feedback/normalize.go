package feedback

import (
	"strings"

	"resumind/internal/types"
)

// Item is one displayed feedback point inside a category
type Item struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation,omitempty"`
}

// CategoryView is the canonical per-category view: a 0-100 score plus
// at most maxItemsPerBucket strengths and improvements
type CategoryView struct {
	ID           CategoryID `json:"id"`
	Title        string     `json:"title"`
	Score        int        `json:"score"`
	Strengths    []Item     `json:"strengths"`
	Improvements []Item     `json:"improvements"`
}

// ATSView is the canonical applicant-tracking view
type ATSView struct {
	Score int         `json:"score"`
	Tips  []types.Tip `json:"tips"`
}

// Report is the canonical normalized view of raw analyzer feedback.
// All scores are on a 0-100 scale regardless of which schema the
// analyzer produced.
type Report struct {
	Overall    int            `json:"overall"`
	ATS        ATSView        `json:"ats"`
	Categories []CategoryView `json:"categories"`
}

const maxItemsPerBucket = 2

// maxSynthesizedATSTips bounds tips derived from the flat ats_issues list
const maxSynthesizedATSTips = 3

// Normalizer converts raw dual-schema feedback into the canonical view.
// Normalization is pure and never fails: absent fields become zero
// scores and empty buckets.
type Normalizer struct {
	rules Rules
}

// NewNormalizer creates a normalizer with the given fallback rules.
// Nil rules select the defaults.
func NewNormalizer(rules Rules) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Normalize builds the canonical report view. Structured schema blocks
// win over legacy fields whenever both are present.
func (n *Normalizer) Normalize(f types.Feedback) Report {
	r := Report{
		Overall:    overallScore(f),
		ATS:        atsView(f),
		Categories: make([]CategoryView, 0, len(CategoryOrder)),
	}

	for _, id := range CategoryOrder {
		r.Categories = append(r.Categories, n.categoryView(id, f))
	}

	return r
}

func overallScore(f types.Feedback) int {
	if f.OverallScore != nil {
		return clampScore(*f.OverallScore)
	}
	return clampScore(f.OverallRating * 10)
}

// ScaleTo100 widens a score to the 0-100 range. Values at or below 10
// are treated as the legacy 0-10 scale and multiplied by 10; anything
// larger is assumed to be 0-100 already.
func ScaleTo100(v int) int {
	if v <= 10 {
		return clampScore(v * 10)
	}
	return clampScore(v)
}

func atsView(f types.Feedback) ATSView {
	if f.ATS != nil {
		tips := f.ATS.Tips
		if len(tips) == 0 {
			tips = synthesizeATSTips(f.ATSIssues)
		}
		// The structured block already scores 0-100; only the legacy
		// ats_compatibility field needs widening.
		return ATSView{Score: clampScore(f.ATS.Score), Tips: tips}
	}
	return ATSView{
		Score: ScaleTo100(f.ATSCompatibility),
		Tips:  synthesizeATSTips(f.ATSIssues),
	}
}

func synthesizeATSTips(issues []string) []types.Tip {
	if len(issues) == 0 {
		return nil
	}
	limit := min(len(issues), maxSynthesizedATSTips)
	tips := make([]types.Tip, 0, limit)
	for _, issue := range issues[:limit] {
		tips = append(tips, types.Tip{Type: types.TipImprove, Tip: issue})
	}
	return tips
}

func (n *Normalizer) categoryView(id CategoryID, f types.Feedback) CategoryView {
	view := CategoryView{
		ID:           id,
		Title:        CategoryTitles[id],
		Score:        categoryScore(id, f),
		Strengths:    []Item{},
		Improvements: []Item{},
	}

	if block := categoryBlock(id, f); block != nil && len(block.Tips) > 0 {
		view.Strengths = itemsFromTips(block.Tips, types.TipGood)
		view.Improvements = itemsFromTips(block.Tips, types.TipImprove)
		return view
	}

	rule := n.rules[id]
	view.Strengths = filterLegacy(rule.Strengths, f)
	view.Improvements = filterLegacy(rule.Improvements, f)
	return view
}

func categoryBlock(id CategoryID, f types.Feedback) *types.CategoryFeedback {
	switch id {
	case CategoryToneAndStyle:
		return f.ToneAndStyle
	case CategoryContent:
		return f.ContentBlock
	case CategoryStructure:
		return f.Structure
	case CategorySkills:
		return f.Skills
	}
	return nil
}

func categoryScore(id CategoryID, f types.Feedback) int {
	if block := categoryBlock(id, f); block != nil {
		return clampScore(block.Score)
	}

	// Legacy source mapping; the flat schema has no tone or structure
	// scores, so the formatting sub-score stands in for both.
	var legacy int
	switch id {
	case CategoryToneAndStyle, CategoryStructure:
		legacy = f.Content.Formatting
	case CategoryContent:
		legacy = f.Content.ExperienceRelevance
	case CategorySkills:
		legacy = f.Content.TechnicalSkills
	}
	return clampScore(legacy * 10)
}

func itemsFromTips(tips []types.Tip, want types.TipType) []Item {
	items := []Item{}
	for _, tip := range tips {
		if tip.Type != want {
			continue
		}
		items = append(items, Item{Text: tip.Tip, Explanation: tip.Explanation})
		if len(items) == maxItemsPerBucket {
			break
		}
	}
	return items
}

func filterLegacy(rule FilterRule, f types.Feedback) []Item {
	items := []Item{}
	for _, src := range rule.Sources {
		for _, entry := range legacyList(src, f) {
			if !matches(entry, rule) {
				continue
			}
			items = append(items, Item{Text: entry})
			if len(items) == maxItemsPerBucket {
				return items
			}
		}
	}
	return items
}

func legacyList(id ListID, f types.Feedback) []string {
	switch id {
	case ListStrengths:
		return f.Strengths
	case ListWeaknesses:
		return f.Weaknesses
	case ListATSIssues:
		return f.ATSIssues
	case ListMissingElements:
		return f.MissingElements
	case ListRecommendations:
		return f.Recommendations
	case ListImprovementSuggestions:
		return f.ImprovementSuggestions
	}
	return nil
}

func matches(entry string, rule FilterRule) bool {
	lower := strings.ToLower(entry)
	for _, kw := range rule.Exclude {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	if len(rule.Include) == 0 {
		return true
	}
	for _, kw := range rule.Include {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
