package client

import (
	"fmt"
	"io"
	"strings"
)

// Section is one labeled part of a rendered analysis
type Section struct {
	Title string
	Text  string
}

// Sections returns the five analysis fields in display order
func Sections(result *AnalysisResult) []Section {
	return []Section{
		{Title: "Preliminary assessment", Text: result.PreliminaryAssessment},
		{Title: "Possible causes", Text: result.PossibleCauses},
		{Title: "Urgency level", Text: result.UrgencyLevel},
		{Title: "Recommendations", Text: result.Recommendations},
		{Title: "Which doctor to see", Text: result.DoctorRecommendation},
	}
}

// RenderText writes the analysis as plain text with bold markers removed
// and bullets moved to their own lines.
func RenderText(w io.Writer, result *AnalysisResult) error {
	for i, s := range Sections(result) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", s.Title, plainText(s.Text)); err != nil {
			return err
		}
	}
	return nil
}

func plainText(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "•", "\n•")
	return strings.TrimSpace(text)
}
