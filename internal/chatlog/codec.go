// Package chatlog encodes, decodes, and stores the patient-facing log of
// diagnosis-intake interactions.
package chatlog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Consultation is one intake interaction as recorded in the chat history.
type Consultation struct {
	UserInput       string   `json:"user_input"`
	Diagnosis       string   `json:"diagnosis"`
	Symptoms        []string `json:"symptoms"`
	SuggestedFields []string `json:"suggested_fields"`
	// Doctors holds "name - specialization" entries for the candidates
	// surfaced alongside the diagnosis.
	Doctors []string `json:"doctors"`
}

const (
	labelUserInput       = "User Input:"
	labelDiagnosis       = "Diagnosis:"
	labelSymptoms        = "Symptoms:"
	labelSuggestedFields = "Suggested Fields:"
	labelDoctors         = "Doctors:"

	// unknownField is the sentinel for sections that fail to parse.
	unknownField = "Unknown"
)

var (
	reUserInput       = regexp.MustCompile(`User Input: (.+?)\n`)
	reSymptoms        = regexp.MustCompile(`Symptoms: (.+?)\n`)
	reSuggestedFields = regexp.MustCompile(`Suggested Fields: (.+?)\n`)
	reDoctors         = regexp.MustCompile(`Doctors: (.+)`)
)

// Encode renders a consultation into the label-delimited template used by
// historical entries. Free text containing the label tokens themselves is not
// escaped and will not survive a round trip.
func Encode(c Consultation) string {
	return fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %s\n%s %s\n",
		labelUserInput, c.UserInput,
		labelDiagnosis, c.Diagnosis,
		labelSymptoms, strings.Join(c.Symptoms, ", "),
		labelSuggestedFields, strings.Join(c.SuggestedFields, ", "),
		labelDoctors, strings.Join(c.Doctors, ", "),
	)
}

// jsonEntry is the tagged serialization used for new history entries. It
// avoids the label-collision ambiguity of the legacy template.
type jsonEntry struct {
	UserInput       string   `json:"user_input"`
	Diagnosis       string   `json:"diagnosis"`
	Symptoms        []string `json:"symptoms"`
	SuggestedFields []string `json:"suggested_fields"`
	Doctors         []string `json:"doctors"`
}

// EncodeJSON renders a consultation as a tagged JSON document.
func EncodeJSON(c Consultation) (string, error) {
	data, err := json.Marshal(jsonEntry{
		UserInput:       c.UserInput,
		Diagnosis:       c.Diagnosis,
		Symptoms:        c.Symptoms,
		SuggestedFields: c.SuggestedFields,
		Doctors:         c.Doctors,
	})
	if err != nil {
		return "", fmt.Errorf("chatlog: encode entry: %w", err)
	}
	return string(data), nil
}

// Decode recovers a consultation from a stored history blob. JSON entries are
// decoded directly; anything else goes through the legacy label-anchored
// parser. Parse failures degrade to sentinel values rather than errors.
func Decode(raw string) Consultation {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var e jsonEntry
		if err := json.Unmarshal([]byte(trimmed), &e); err == nil {
			return Consultation{
				UserInput:       e.UserInput,
				Diagnosis:       e.Diagnosis,
				Symptoms:        e.Symptoms,
				SuggestedFields: e.SuggestedFields,
				Doctors:         e.Doctors,
			}
		}
	}
	return decodeLegacy(raw)
}

func decodeLegacy(raw string) Consultation {
	c := Consultation{
		UserInput: unknownField,
		Diagnosis: unknownField,
	}

	if m := reUserInput.FindStringSubmatch(raw); m != nil {
		c.UserInput = strings.TrimSpace(m[1])
	}
	c.Symptoms = splitList(reSymptoms.FindStringSubmatch(raw))
	c.SuggestedFields = splitList(reSuggestedFields.FindStringSubmatch(raw))
	c.Doctors = splitList(reDoctors.FindStringSubmatch(raw))

	// The diagnosis may span multiple lines, so it is recovered as the
	// substring between its label and the next known label.
	if idx := strings.Index(raw, labelDiagnosis); idx != -1 {
		remaining := raw[idx+len(labelDiagnosis):]
		next := -1
		for _, label := range []string{labelSymptoms, labelSuggestedFields, labelDoctors} {
			if pos := strings.Index(remaining, label); pos != -1 && (next == -1 || pos < next) {
				next = pos
			}
		}
		if next == -1 {
			c.Diagnosis = strings.TrimSpace(remaining)
		} else {
			c.Diagnosis = strings.TrimSpace(remaining[:next])
		}
	}

	return c
}

func splitList(match []string) []string {
	if match == nil {
		return nil
	}
	parts := strings.Split(match[1], ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
