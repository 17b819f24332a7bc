package entities

import (
	"encoding/json"
	"fmt"
)

// DiagnosisResult is the opaque payload returned by the diagnosis service.
// It is only ever embedded into the generation prompt.
type DiagnosisResult struct {
	Raw json.RawMessage
}

// Indented returns the payload pretty-printed with two-space indentation, or
// the raw bytes when they are not valid JSON.
func (d *DiagnosisResult) Indented() string {
	if d == nil || len(d.Raw) == 0 {
		return "null"
	}
	var v interface{}
	if err := json.Unmarshal(d.Raw, &v); err != nil {
		return string(d.Raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(d.Raw)
	}
	return string(out)
}

// AnalysisResult is the five-section narrative returned to the client
type AnalysisResult struct {
	PreliminaryAssessment string `json:"preliminaryAssessment"`
	PossibleCauses        string `json:"possibleCauses"`
	UrgencyLevel          string `json:"urgencyLevel"`
	Recommendations       string `json:"recommendations"`
	DoctorRecommendation  string `json:"doctorRecommendation"`
}

// AnalysisFields lists the JSON keys every generated answer must carry
var AnalysisFields = []string{
	"preliminaryAssessment",
	"possibleCauses",
	"urgencyLevel",
	"recommendations",
	"doctorRecommendation",
}

// ParseAnalysisResult decodes generated JSON and insists that every one of the
// five keys is present and holds a string.
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("generated text is not a JSON object: %w", err)
	}

	values := make(map[string]string, len(AnalysisFields))
	for _, key := range AnalysisFields {
		raw, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("generated JSON is missing %q", key)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("generated JSON field %q is not a string", key)
		}
		values[key] = s
	}

	return &AnalysisResult{
		PreliminaryAssessment: values["preliminaryAssessment"],
		PossibleCauses:        values["possibleCauses"],
		UrgencyLevel:          values["urgencyLevel"],
		Recommendations:       values["recommendations"],
		DoctorRecommendation:  values["doctorRecommendation"],
	}, nil
}
