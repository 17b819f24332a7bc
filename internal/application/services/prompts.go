package services

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type promptLocale struct {
	template   string
	disclaimer string
	genders    map[entities.Gender]string
}

var promptLocales = map[string]promptLocale{
	"ru": {
		template:   "ru.tmpl",
		disclaimer: "Этот анализ не является медицинским диагнозом. Для точной диагностики и лечения обратитесь к врачу.",
		genders: map[entities.Gender]string{
			entities.GenderMale:   "мужской",
			entities.GenderFemale: "женский",
		},
	},
	"en": {
		template:   "en.tmpl",
		disclaimer: "This analysis is not a medical diagnosis. See a doctor for an accurate diagnosis and treatment.",
		genders: map[entities.Gender]string{
			entities.GenderMale:   "male",
			entities.GenderFemale: "female",
		},
	},
}

type promptData struct {
	Age           string
	Gender        string
	MainComplaint string
	Symptoms      string
	Duration      string
	Diagnosis     string
	Disclaimer    string
}

// buildAnalysisPrompt renders the generation prompt for a submission and the
// raw diagnosis payload.
func buildAnalysisPrompt(language string, sub *entities.Submission, diagnosis *entities.DiagnosisResult) (string, error) {
	locale, ok := promptLocales[language]
	if !ok {
		return "", fmt.Errorf("unsupported prompt language %q", language)
	}

	data := promptData{
		Age:           strings.TrimSpace(sub.Age),
		Gender:        locale.genders[sub.Gender],
		MainComplaint: strings.TrimSpace(sub.MainComplaint),
		Symptoms:      strings.Join(sub.Symptoms(), ", "),
		Duration:      string(sub.Duration),
		Diagnosis:     diagnosis.Indented(),
		Disclaimer:    locale.disclaimer,
	}

	var b strings.Builder
	if err := promptTemplates.ExecuteTemplate(&b, locale.template, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// fenceMarkers removes every fence marker, info string included.
var fenceMarkers = strings.NewReplacer("```json\n", "", "```", "")

// stripCodeFence removes markdown code fences around generated JSON. It tries,
// in order, the text without a leading fence line and trailing fence, the
// body of the first fenced block, and the text with every marker removed, and
// returns the first candidate that is valid JSON.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)

	outer := trimOuterFence(trimmed)
	if json.Valid([]byte(outer)) {
		return outer
	}
	if block, ok := firstFencedBlock(trimmed); ok && json.Valid([]byte(block)) {
		return block
	}
	if bare := strings.TrimSpace(fenceMarkers.Replace(trimmed)); json.Valid([]byte(bare)) {
		return bare
	}
	return outer
}

// trimOuterFence drops a leading ```lang line and a trailing ```, leaving any
// fences inside the body alone.
func trimOuterFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = dropInfoString(s[3:])
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func firstFencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	body := dropInfoString(s[start+3:])
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// dropInfoString removes the info string ("json", "JSON", ...) that follows
// an opening fence.
func dropInfoString(body string) string {
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		return body[nl+1:]
	}
	return strings.TrimPrefix(strings.TrimPrefix(body, "json"), "JSON")
}
