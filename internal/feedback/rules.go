package feedback

// CategoryID identifies one of the four review categories
type CategoryID string

const (
	CategoryToneAndStyle CategoryID = "tone_and_style"
	CategoryContent      CategoryID = "content"
	CategoryStructure    CategoryID = "structure"
	CategorySkills       CategoryID = "skills"
)

// CategoryOrder is the display order of categories in every rendered view
var CategoryOrder = []CategoryID{
	CategoryToneAndStyle,
	CategoryContent,
	CategoryStructure,
	CategorySkills,
}

// CategoryTitles maps category ids to their display titles
var CategoryTitles = map[CategoryID]string{
	CategoryToneAndStyle: "Tone & Style",
	CategoryContent:      "Content",
	CategoryStructure:    "Structure",
	CategorySkills:       "Skills",
}

// ListID names one of the flat legacy feedback lists usable as a
// fallback source when a category carries no structured tips
type ListID string

const (
	ListStrengths              ListID = "strengths"
	ListWeaknesses             ListID = "weaknesses"
	ListATSIssues              ListID = "ats_issues"
	ListMissingElements        ListID = "missing_elements"
	ListRecommendations        ListID = "recommendations"
	ListImprovementSuggestions ListID = "improvement_suggestions"
)

// FilterRule selects entries from legacy lists by case-insensitive
// substring match. An empty Include set accepts every entry; Exclude
// always wins over Include.
type FilterRule struct {
	Sources []ListID `mapstructure:"sources" json:"sources"`
	Include []string `mapstructure:"include" json:"include"`
	Exclude []string `mapstructure:"exclude" json:"exclude"`
}

// CategoryRule holds the fallback filters for one category
type CategoryRule struct {
	Strengths    FilterRule `mapstructure:"strengths" json:"strengths"`
	Improvements FilterRule `mapstructure:"improvements" json:"improvements"`
}

// Rules maps each category to its fallback filters. The keyword sets
// are plain data so deployments can tune them through configuration.
type Rules map[CategoryID]CategoryRule

// DefaultRules returns the built-in fallback keyword rules
func DefaultRules() Rules {
	return Rules{
		CategoryToneAndStyle: {
			Strengths: FilterRule{
				Sources: []ListID{ListStrengths},
				Include: []string{"format", "layout", "style", "professional", "contact", "portfolio"},
			},
			Improvements: FilterRule{
				Sources: []ListID{ListWeaknesses},
				Include: []string{"format", "layout", "style", "professional", "contact", "portfolio"},
			},
		},
		CategoryContent: {
			Strengths: FilterRule{
				Sources: []ListID{ListStrengths},
				Include: []string{"experience", "achievement", "work", "career", "education"},
				Exclude: []string{"format", "layout", "ats", "skill"},
			},
			Improvements: FilterRule{
				Sources: []ListID{ListWeaknesses},
				Exclude: []string{"format", "layout", "ats", "skill"},
			},
		},
		CategoryStructure: {
			Strengths: FilterRule{
				Sources: []ListID{ListStrengths},
				Include: []string{"format", "layout", "structure", "organized"},
			},
			Improvements: FilterRule{
				Sources: []ListID{ListATSIssues},
			},
		},
		CategorySkills: {
			Strengths: FilterRule{
				Sources: []ListID{ListStrengths},
				Include: []string{"skill", "technical", "technology", "framework", "language", "tool"},
			},
			Improvements: FilterRule{
				Sources: []ListID{ListMissingElements},
				Include: []string{"skill", "tool", "library", "framework"},
			},
		},
	}
}
