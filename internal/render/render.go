package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/report"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/skills"
)

// Categorizer splits a skill set into technical and soft skills.
type Categorizer interface {
	Categorize(set skills.Set) (technical, soft skills.Set)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	bandColors = map[report.Band]lipgloss.Color{
		report.BandExcellent: lipgloss.Color("10"),
		report.BandGood:      lipgloss.Color("12"),
		report.BandFair:      lipgloss.Color("11"),
		report.BandPoor:      lipgloss.Color("9"),
	}
)

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *report.MatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Text renders a human readable summary. c may be nil, in which case skills
// are not split by category.
func Text(r *report.MatchReport, c Categorizer) string {
	if r == nil {
		return ""
	}

	band := lipgloss.NewStyle().Bold(true).Foreground(bandColors[r.Analysis.OverallMatch])
	header := titleStyle.Render("Match report") + "  " +
		band.Render(fmt.Sprintf("%.2f%% %s", r.MatchPercentage, r.Analysis.OverallMatch))

	summary := strings.Join([]string{
		line("Similarity", fmt.Sprintf("%.4f", r.SimilarityScore)),
		line("Coverage", r.Analysis.SkillCoverage),
		line("Lengths", fmt.Sprintf("resume %d, job description %d", r.ResumeLength, r.JDLength)),
	}, "\n")

	sections := []string{header, boxStyle.Render(summary)}
	sections = append(sections, skillSection("Matching skills", r.MatchingSkills, c, matchStyle))
	sections = append(sections, skillSection("Missing skills", r.MissingSkills, c, missStyle))

	recs := make([]string, 0, len(r.Analysis.Recommendations))
	for _, rec := range r.Analysis.Recommendations {
		recs = append(recs, "• "+rec)
	}
	sections = append(sections, titleStyle.Render("Recommendations")+"\n"+strings.Join(recs, "\n"))

	return strings.Join(sections, "\n\n") + "\n"
}

func skillSection(title string, set skills.Set, c Categorizer, style lipgloss.Style) string {
	out := titleStyle.Render(title)
	if set.Len() == 0 {
		return out + "\n" + labelStyle.Render("none")
	}
	if c == nil {
		return out + "\n" + style.Render(strings.Join(set.Sorted(), ", "))
	}

	technical, soft := c.Categorize(set)
	if technical.Len() > 0 {
		out += "\n" + line("technical", style.Render(strings.Join(technical.Sorted(), ", ")))
	}
	if soft.Len() > 0 {
		out += "\n" + line("soft", style.Render(strings.Join(soft.Sorted(), ", ")))
	}
	return out
}

func line(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}
