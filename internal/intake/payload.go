package intake

import (
	"encoding/json"
	"fmt"
	"strings"

	"basegraph.app/intake/internal/model"
)

// Payload is the structured reply the extractor is asked to produce.
type Payload struct {
	UserResponse  string         `json:"user_response"`
	BugReportData map[string]any `json:"bug_report_data"`
	IsComplete    bool           `json:"is_complete"`
	Questions     []string       `json:"questions_to_ask"`
}

// Parse stages reported on ParseError.
const (
	StageLocate    = "locate"
	StageUnmarshal = "unmarshal"
)

// ParseError means the extractor's reply held no usable payload. It is a soft
// failure: the processor turns it into a rephrase prompt.
type ParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse extractor reply (%s)", e.Stage)
	}
	return fmt.Sprintf("parse extractor reply (%s): %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StripFences removes a surrounding markdown code fence, with or without a
// json language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the substring from the first '{' to the last '}'
// inclusive. ok is false when no such span exists.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ParsePayload runs the tolerant pipeline: strip fences, slice out the outer
// object, unmarshal it.
func ParsePayload(raw string) (*Payload, error) {
	obj, ok := ExtractObject(StripFences(raw))
	if !ok {
		return nil, &ParseError{Stage: StageLocate, Raw: raw}
	}

	var p Payload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, &ParseError{Stage: StageUnmarshal, Raw: raw, Err: err}
	}
	return &p, nil
}

// UnmarshalJSON coerces user_response, is_complete and questions_to_ask
// instead of rejecting them. bug_report_data must still be an object.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserResponse  any            `json:"user_response"`
		BugReportData map[string]any `json:"bug_report_data"`
		IsComplete    any            `json:"is_complete"`
		Questions     any            `json:"questions_to_ask"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Payload{
		UserResponse:  coerceString(raw.UserResponse),
		BugReportData: raw.BugReportData,
		IsComplete:    coerceBool(raw.IsComplete),
		Questions:     coerceStrings(raw.Questions),
	}
	return nil
}

// coerceString keeps strings, blanks null and renders anything else as JSON.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		}
		return false
	case float64:
		return b != 0
	default:
		return false
	}
}

func coerceStrings(v any) []string {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			out = append(out, coerceString(item))
		}
		return out
	case string:
		if strings.TrimSpace(list) == "" {
			return nil
		}
		return []string{list}
	default:
		return nil
	}
}

// Record converts the payload's report data to a Record. Strings pass
// through, null becomes blank, anything else is kept as its JSON text.
func (p *Payload) Record() model.Record {
	out := make(model.Record, len(p.BugReportData))
	for key, value := range p.BugReportData {
		switch v := value.(type) {
		case nil:
			out[key] = ""
		case string:
			out[key] = v
		default:
			out[key] = coerceString(v)
		}
	}
	return out
}
