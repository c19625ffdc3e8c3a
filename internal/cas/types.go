// Package cas holds the records passed between the casbot stages and the
// scratch-file handoff that lets every stage be re-run on its own.
package cas

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Strand is one of the three CAS strands.
type Strand string

const (
	StrandCreativity Strand = "Creativity"
	StrandActivity   Strand = "Activity"
	StrandService    Strand = "Service"
)

// ParseStrand accepts any casing; empty input defaults to Service.
func ParseStrand(s string) (Strand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "service":
		return StrandService, nil
	case "creativity":
		return StrandCreativity, nil
	case "activity":
		return StrandActivity, nil
	}
	return "", fmt.Errorf("unknown CAS strand %q (want Creativity, Activity or Service)", s)
}

// Hours is a duration in hours. The idea generator is not consistent about
// emitting numbers, so it also decodes from a numeric string.
type Hours float64

func (h *Hours) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*h = Hours(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a number: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*h = 0
		return nil
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &f); err != nil {
		return fmt.Errorf("duration %q is not a number", s)
	}
	*h = Hours(f)
	return nil
}

// OutcomeCodes lists learning outcome codes. The model sometimes emits them
// as numbers, so both [1, 4] and ["1", "4"] decode.
type OutcomeCodes []string

func (o *OutcomeCodes) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("learning outcomes must be a list: %w", err)
	}
	if raw == nil {
		*o = nil
		return nil
	}
	codes := make(OutcomeCodes, 0, len(raw))
	for _, item := range raw {
		if string(item) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			codes = append(codes, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("learning outcome %s is not a code", item)
		}
		codes = append(codes, n.String())
	}
	*o = codes
	return nil
}

// ActivityIdea is one invented activity session.
type ActivityIdea struct {
	Description      string       `json:"description"`
	Date             string       `json:"date"`
	Duration         Hours        `json:"duration"`
	Strand           Strand       `json:"cas_strand"`
	LearningOutcomes OutcomeCodes `json:"learning_outcomes"`
}

// ReflectionResult is the reflection stage output consumed by the form driver.
type ReflectionResult struct {
	Success             bool         `json:"success"`
	Reflection          string       `json:"reflection,omitempty"`
	ActivityDescription string       `json:"activity_description,omitempty"`
	LearningOutcomes    OutcomeCodes `json:"learning_outcomes,omitempty"`
	Date                string       `json:"date,omitempty"`
	Strand              Strand       `json:"cas_strand,omitempty"`
	DurationHours       Hours        `json:"duration_hours,omitempty"`
	Error               string       `json:"error,omitempty"`
}

// ImageAnalysis is the optional photo analysis fed into the reflection prompt.
type ImageAnalysis struct {
	Success    bool     `json:"success"`
	Analysis   string   `json:"analysis,omitempty"`
	NumImages  int      `json:"num_images,omitempty"`
	ImagePaths []string `json:"image_paths,omitempty"`
	Error      string   `json:"error,omitempty"`
}
