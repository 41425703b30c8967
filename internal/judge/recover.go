package judge

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/judica-dev/judica/internal/models"
)

// FallbackWarning accompanies every RawFallback
const FallbackWarning = "Model did not return valid JSON. Check rawOutput for debugging."

var jsonFence = regexp.MustCompile("(?i)```json")

// Recover turns a model reply into an Outcome. The reply is parsed as JSON
// as-is, then again with markdown fences removed; if neither parse yields a
// value, the untouched reply is returned as a RawFallback. Parsed JSON is
// not checked against the EvaluationResult schema.
func Recover(content string) models.Outcome {
	if raw, ok := parseResult(content); ok {
		return models.Structured{Result: raw}
	}
	return models.RawFallback{
		RawOutput: content,
		Warning:   FallbackWarning,
	}
}

// parseResult mirrors the two-attempt parse. A reply that parses on the
// first attempt is final even when it is an empty value.
func parseResult(content string) (json.RawMessage, bool) {
	if raw, ok := decode(content); ok {
		return raw, !isEmptyValue(raw)
	}

	cleaned := StripFences(content)
	if raw, ok := decode(cleaned); ok {
		return raw, !isEmptyValue(raw)
	}

	return nil, false
}

// StripFences removes every ```json and ``` marker and trims whitespace
func StripFences(content string) string {
	cleaned := jsonFence.ReplaceAllString(content, "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

func decode(s string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

// isEmptyValue reports whether a parsed value counts as "no result":
// null, false, zero, or the empty string. Objects and arrays never do.
func isEmptyValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	switch trimmed[0] {
	case '{', '[', 't':
		return false
	case 'n', 'f':
		return true
	case '"':
		return string(trimmed) == `""`
	default:
		return isZeroNumber(string(trimmed))
	}
}

// isZeroNumber reports whether a JSON number evaluates to zero. Overflow
// yields ±Inf, which is non-zero; underflow rounds to zero.
func isZeroNumber(s string) bool {
	f, _ := strconv.ParseFloat(s, 64)
	return f == 0
}
