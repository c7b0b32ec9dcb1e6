package report

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/skills"
)

// Band is the qualitative label for a match percentage.
type Band string

const (
	BandExcellent Band = "Excellent"
	BandGood      Band = "Good"
	BandFair      Band = "Fair"
	BandPoor      Band = "Poor"
)

const (
	maxFocusSkills = 3

	recommendAligned   = "Great skill alignment!"
	recommendProjects  = "Consider highlighting relevant projects and experiences"
	recommendEmphasize = "Tailor your resume to emphasize matching skills"
)

// Input carries everything Build needs. Skill sets may be nil.
type Input struct {
	ResumeText   string
	JDText       string
	ResumeSkills skills.Set
	JDSkills     skills.Set
	Similarity   float64
}

// Analysis is the qualitative part of a report.
type Analysis struct {
	OverallMatch    Band     `json:"overall_match"`
	SkillCoverage   string   `json:"skill_coverage"`
	Recommendations []string `json:"recommendations"`
}

// MatchReport is the result of comparing a resume with a job description.
type MatchReport struct {
	MatchPercentage float64    `json:"match_percentage"`
	SimilarityScore float64    `json:"similarity_score"`
	ResumeSkills    skills.Set `json:"resume_skills"`
	JDSkills        skills.Set `json:"jd_skills"`
	MatchingSkills  skills.Set `json:"matching_skills"`
	MissingSkills   skills.Set `json:"missing_skills"`
	ResumeLength    int        `json:"resume_length"`
	JDLength        int        `json:"jd_length"`
	Analysis        Analysis   `json:"analysis"`
}

// Build merges skill sets and similarity into a report. It is pure.
func Build(in Input) *MatchReport {
	resume := orEmpty(in.ResumeSkills)
	jd := orEmpty(in.JDSkills)

	matching := resume.Intersect(jd)
	missing := jd.Difference(resume)
	percentage := Percentage(in.Similarity)

	return &MatchReport{
		MatchPercentage: percentage,
		SimilarityScore: in.Similarity,
		ResumeSkills:    resume,
		JDSkills:        jd,
		MatchingSkills:  matching,
		MissingSkills:   missing,
		ResumeLength:    utf8.RuneCountInString(in.ResumeText),
		JDLength:        utf8.RuneCountInString(in.JDText),
		Analysis: Analysis{
			OverallMatch:    BandFor(percentage),
			SkillCoverage:   fmt.Sprintf("%d/%d skills matched", matching.Len(), jd.Len()),
			Recommendations: Recommendations(missing),
		},
	}
}

// Percentage converts a similarity to a percentage rounded to two decimals,
// half away from zero. Negative similarities stay negative.
func Percentage(similarity float64) float64 {
	return math.Round(similarity*100*100) / 100
}

// BandFor maps a percentage to its band. Lower bounds are inclusive.
func BandFor(percentage float64) Band {
	switch {
	case percentage >= 80:
		return BandExcellent
	case percentage >= 60:
		return BandGood
	case percentage >= 40:
		return BandFair
	default:
		return BandPoor
	}
}

// Recommendations returns exactly three suggestions. The first names up to
// three missing skills in lexicographic order.
func Recommendations(missing skills.Set) []string {
	first := recommendAligned
	if missing.Len() > 0 {
		names := missing.Sorted()
		if len(names) > maxFocusSkills {
			names = names[:maxFocusSkills]
		}
		first = "Focus on developing: " + strings.Join(names, ", ")
	}

	return []string{first, recommendProjects, recommendEmphasize}
}

func orEmpty(s skills.Set) skills.Set {
	if s == nil {
		return make(skills.Set)
	}
	return s
}
