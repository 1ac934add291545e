package model

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Well-known bug report fields. A Record may carry extra keys beyond these.
const (
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldStepsToReproduce = "steps_to_reproduce"
	FieldExpectedBehavior = "expected_behavior"
	FieldActualBehavior   = "actual_behavior"
	FieldSeverity         = "severity"
	FieldEnvironment      = "environment"
	FieldAdditionalNotes  = "additional_notes"
	FieldLabel            = "label"
)

// FieldSpec pairs a record key with the label shown to users and the LLM.
type FieldSpec struct {
	Name  string
	Label string
}

// RequiredFields is the completion rubric's minimum bar, in schema order.
var RequiredFields = []FieldSpec{
	{Name: FieldTitle, Label: "Title/Summary"},
	{Name: FieldDescription, Label: "Description"},
	{Name: FieldStepsToReproduce, Label: "Steps to Reproduce"},
	{Name: FieldExpectedBehavior, Label: "Expected Behavior"},
	{Name: FieldActualBehavior, Label: "Actual Behavior"},
}

var OptionalFields = []FieldSpec{
	{Name: FieldSeverity, Label: "Severity"},
	{Name: FieldEnvironment, Label: "Environment"},
	{Name: FieldAdditionalNotes, Label: "Additional Notes"},
	{Name: FieldLabel, Label: "Label"},
}

// Record is the accumulated bug report: field name to value.
type Record map[string]string

// Get returns the trimmed value for key, or "" when absent.
func (r Record) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Has reports whether key holds a non-blank value.
func (r Record) Has(key string) bool {
	return r.Get(key) != ""
}

// Clone returns a shallow copy. A nil record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MissingFields returns the labels of required fields that are absent or blank,
// in schema order.
func MissingFields(r Record) []string {
	missing := make([]string, 0, len(RequiredFields))
	for _, f := range RequiredFields {
		if !r.Has(f.Name) {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// Merge folds incoming into existing and returns the result as a new Record.
// Non-blank incoming values overwrite; blank ones are ignored, so a filled
// field is never cleared. Neither argument is modified.
func Merge(existing, incoming Record) Record {
	merged := existing.Clone()
	for key, value := range incoming {
		if strings.TrimSpace(value) == "" {
			continue
		}
		merged[key] = value
	}
	return merged
}

// Summary renders the non-blank fields one per line for prompts and logs.
// Schema fields come first in schema order, extra keys follow sorted.
func (r Record) Summary() string {
	var lines []string
	seen := make(map[string]bool, len(r))

	for _, group := range [][]FieldSpec{RequiredFields, OptionalFields} {
		for _, f := range group {
			seen[f.Name] = true
			if v := r.Get(f.Name); v != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", TitleCaseKey(f.Name), v))
			}
		}
	}

	extras := make([]string, 0)
	for k := range r {
		if !seen[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		if v := r.Get(k); v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", TitleCaseKey(k), v))
		}
	}

	if len(lines) == 0 {
		return "No information collected yet."
	}
	return strings.Join(lines, "\n")
}

// TitleCaseKey turns "steps_to_reproduce" into "Steps To Reproduce".
func TitleCaseKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
