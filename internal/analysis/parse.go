package analysis

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/resumelens/resumelens/internal/model"
)

// ErrUnparsableReply indicates the model reply could not be coerced into
// the expected result shape. Callers substitute the fallback result.
var ErrUnparsableReply = errors.New("reply does not contain a usable result")

var fencedJSONRegex = regexp.MustCompile("```json\\s*\\n([\\s\\S]*?)\\n\\s*```")

// ParseResult extracts an AnalysisResult from a raw model reply. Three
// forms are tried in order: a fenced ```json block, the first balanced
// JSON object anywhere in the reply, then the whole reply verbatim.
func ParseResult(reply string) (model.AnalysisResult, error) {
	if m := fencedJSONRegex.FindStringSubmatch(reply); m != nil {
		if result, err := decodeResult([]byte(m[1])); err == nil {
			return result, nil
		}
	}

	if span := firstObjectSpan(reply); span != "" {
		if result, err := decodeResult([]byte(span)); err == nil {
			return result, nil
		}
	}

	if result, err := decodeResult([]byte(reply)); err == nil {
		return result, nil
	}

	return model.AnalysisResult{}, ErrUnparsableReply
}

// firstObjectSpan returns the first balanced {...} object in s, tracking
// string literals and escapes so braces inside strings do not count.
func firstObjectSpan(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				if depth == 0 {
					start = i
				}
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// rawResult mirrors AnalysisResult with pointer fields so that absent
// keys are distinguishable from zero values.
type rawResult struct {
	Score        *int      `json:"score"`
	ATSFriendly  *bool     `json:"atsFriendly"`
	Strengths    *[]string `json:"strengths"`
	Improvements *[]string `json:"improvements"`
	Keywords     *struct {
		Found   []string `json:"found"`
		Missing []string `json:"missing"`
	} `json:"keywords"`
	Summary *string `json:"summary"`
}

// decodeResult parses data as a complete result object. Every field must
// be present and the score must be within 0-100.
func decodeResult(data []byte) (model.AnalysisResult, error) {
	var raw rawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.AnalysisResult{}, err
	}

	if raw.Score == nil || raw.ATSFriendly == nil || raw.Strengths == nil ||
		raw.Improvements == nil || raw.Keywords == nil || raw.Summary == nil {
		return model.AnalysisResult{}, ErrUnparsableReply
	}
	if *raw.Score < 0 || *raw.Score > 100 {
		return model.AnalysisResult{}, ErrUnparsableReply
	}

	return model.AnalysisResult{
		Score:        *raw.Score,
		ATSFriendly:  *raw.ATSFriendly,
		Strengths:    *raw.Strengths,
		Improvements: *raw.Improvements,
		Keywords: model.Keywords{
			Found:   raw.Keywords.Found,
			Missing: raw.Keywords.Missing,
		},
		Summary: *raw.Summary,
	}, nil
}
