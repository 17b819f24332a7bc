package entities

import (
	"strconv"
	"strings"
	"unicode"
)

// Gender of the patient as submitted by the form
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the accepted values
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Duration is the bucketed length of time the symptoms have lasted
type Duration string

const (
	DurationLessThanDay   Duration = "less_than_day"
	DurationOneToThree    Duration = "1-3_days"
	DurationFourToSeven   Duration = "4-7_days"
	DurationOneToTwoWeeks Duration = "1-2_weeks"
	DurationMoreThanMonth Duration = "more_than_month"
)

// Durations lists the buckets in the order the form presents them
var Durations = []Duration{
	DurationLessThanDay,
	DurationOneToThree,
	DurationFourToSeven,
	DurationOneToTwoWeeks,
	DurationMoreThanMonth,
}

// Valid reports whether d is one of the five buckets
func (d Duration) Valid() bool {
	for _, b := range Durations {
		if d == b {
			return true
		}
	}
	return false
}

// Submission is the patient-reported form payload
type Submission struct {
	Age                string   `json:"age"`
	Gender             Gender   `json:"gender"`
	MainComplaint      string   `json:"mainComplaint"`
	AdditionalSymptoms []string `json:"additionalSymptoms"`
	Duration           Duration `json:"duration"`
}

// FieldError describes a single invalid form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks presence of all five fields and the enum values.
// It returns nil when the submission can be sent.
func (s *Submission) Validate() []FieldError {
	var errs []FieldError

	if strings.TrimSpace(s.Age) == "" {
		errs = append(errs, FieldError{Field: "age", Message: "age is required"})
	} else if _, ok := s.AgeYears(); !ok {
		errs = append(errs, FieldError{Field: "age", Message: "age must be a number"})
	}

	if s.Gender == "" {
		errs = append(errs, FieldError{Field: "gender", Message: "gender is required"})
	} else if !s.Gender.Valid() {
		errs = append(errs, FieldError{Field: "gender", Message: "gender must be male or female"})
	}

	if strings.TrimSpace(s.MainComplaint) == "" {
		errs = append(errs, FieldError{Field: "mainComplaint", Message: "main complaint is required"})
	}

	if len(s.Symptoms()) == 0 {
		errs = append(errs, FieldError{Field: "additionalSymptoms", Message: "at least one symptom is required"})
	}

	if s.Duration == "" {
		errs = append(errs, FieldError{Field: "duration", Message: "duration is required"})
	} else if !s.Duration.Valid() {
		errs = append(errs, FieldError{Field: "duration", Message: "unknown duration"})
	}

	return errs
}

// AgeYears parses the leading integer of Age, ignoring surrounding spaces.
// "30", " 30 " and "30 years" all yield 30.
func (s *Submission) AgeYears() (int, bool) {
	trimmed := strings.TrimSpace(s.Age)
	end := 0
	for end < len(trimmed) && unicode.IsDigit(rune(trimmed[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	age, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0, false
	}
	return age, true
}

// Symptoms returns the additional symptoms with blanks and duplicates removed,
// preserving order.
func (s *Submission) Symptoms() []string {
	seen := make(map[string]struct{}, len(s.AdditionalSymptoms))
	out := make([]string, 0, len(s.AdditionalSymptoms))
	for _, sym := range s.AdditionalSymptoms {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// SymptomText joins the main complaint and the additional symptoms the way the
// diagnosis API expects them.
func (s *Submission) SymptomText() string {
	parts := append([]string{strings.TrimSpace(s.MainComplaint)}, s.Symptoms()...)
	return strings.Join(parts, ", ")
}
