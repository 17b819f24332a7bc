package handlers

import (
	"embed"
	"html"
	"html/template"
	"net/http"
	"regexp"
	"strings"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	alertMissingFields  = "Please fill in all required fields."
	alertAnalysisFailed = "Something went wrong while analyzing the symptoms. Please try again."
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type resultSection struct {
	Title string
	Body  template.HTML
}

type formPage struct {
	Age           string
	MainComplaint string
	Genders       []option
	Symptoms      []option
	Durations     []option
	Alert         string
	Sections      []resultSection
}

var symptomOptions = []option{
	{Value: "fever", Label: "Fever"},
	{Value: "fatigue", Label: "Weakness / fatigue"},
	{Value: "nausea", Label: "Nausea"},
	{Value: "dizziness", Label: "Dizziness"},
	{Value: "cough", Label: "Cough"},
	{Value: "soreThroat", Label: "Sore throat"},
	{Value: "bodyAches", Label: "Body aches"},
	{Value: "chills", Label: "Chills"},
}

var genderOptions = []option{
	{Value: string(entities.GenderMale), Label: "Male"},
	{Value: string(entities.GenderFemale), Label: "Female"},
}

var durationOptions = []option{
	{Value: string(entities.DurationLessThanDay), Label: "Less than a day"},
	{Value: string(entities.DurationOneToThree), Label: "1-3 days"},
	{Value: string(entities.DurationFourToSeven), Label: "4-7 days"},
	{Value: string(entities.DurationOneToTwoWeeks), Label: "1-2 weeks"},
	{Value: string(entities.DurationMoreThanMonth), Label: "More than a month"},
}

// FormHandler serves the server-rendered symptom form
type FormHandler struct {
	service Analyzer
}

// NewFormHandler creates a new form handler
func NewFormHandler(service Analyzer) *FormHandler {
	return &FormHandler{
		service: service,
	}
}

// ShowForm handles GET /
func (h *FormHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, newFormPage(&entities.Submission{}))
}

// SubmitForm handles POST /
func (h *FormHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := r.ParseForm(); err != nil {
		page := newFormPage(&entities.Submission{})
		page.Alert = alertMissingFields
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	sub := &entities.Submission{
		Age:                r.PostForm.Get("age"),
		Gender:             entities.Gender(r.PostForm.Get("gender")),
		MainComplaint:      r.PostForm.Get("mainComplaint"),
		AdditionalSymptoms: r.PostForm["additionalSymptoms"],
		Duration:           entities.Duration(r.PostForm.Get("duration")),
	}
	page := newFormPage(sub)

	if len(sub.Validate()) > 0 {
		page.Alert = alertMissingFields
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	result, err := h.service.Analyze(r.Context(), sub)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("form analysis failed")
		page.Alert = alertAnalysisFailed
		h.render(w, r, http.StatusOK, page)
		return
	}

	page.Sections = analysisSections(result)
	h.render(w, r, http.StatusOK, page)
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, statusCode int, page formPage) {
	var b strings.Builder
	if err := formTemplate.Execute(&b, page); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("failed to render form")
		http.Error(w, errInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(b.String()))
}

func newFormPage(sub *entities.Submission) formPage {
	checked := make(map[string]bool, len(sub.AdditionalSymptoms))
	for _, s := range sub.AdditionalSymptoms {
		checked[s] = true
	}
	return formPage{
		Age:           sub.Age,
		MainComplaint: sub.MainComplaint,
		Genders:       markSelected(genderOptions, func(v string) bool { return v == string(sub.Gender) }),
		Symptoms:      markSelected(symptomOptions, func(v string) bool { return checked[v] }),
		Durations:     markSelected(durationOptions, func(v string) bool { return v == string(sub.Duration) }),
	}
}

func markSelected(opts []option, selected func(string) bool) []option {
	out := make([]option, len(opts))
	for i, o := range opts {
		o.Selected = selected(o.Value)
		out[i] = o
	}
	return out
}

func analysisSections(result *entities.AnalysisResult) []resultSection {
	return []resultSection{
		{Title: "Preliminary assessment", Body: formatAnalysisText(result.PreliminaryAssessment)},
		{Title: "Possible causes", Body: formatAnalysisText(result.PossibleCauses)},
		{Title: "Urgency level", Body: formatAnalysisText(result.UrgencyLevel)},
		{Title: "Recommendations", Body: formatAnalysisText(result.Recommendations)},
		{Title: "Which doctor to see", Body: formatAnalysisText(result.DoctorRecommendation)},
	}
}

var boldMarkup = regexp.MustCompile(`\*\*(.*?)\*\*`)

// formatAnalysisText escapes generated text and then applies the light
// markup the model is asked to use.
func formatAnalysisText(text string) template.HTML {
	escaped := html.EscapeString(text)
	escaped = boldMarkup.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	escaped = strings.ReplaceAll(escaped, "•", "<br>•")
	return template.HTML(escaped)
}
