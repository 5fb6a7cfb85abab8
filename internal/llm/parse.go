package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSONSpan means the model output contained no candidate JSON object at all.
	ErrNoJSONSpan = errors.New("no JSON object found in model output")
	// ErrInvalidJSON means a candidate span was found but does not parse.
	ErrInvalidJSON = errors.New("model output is not valid JSON")
)

var reFencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ExtractJSONSpan locates the JSON object in raw model output: a fenced
// ```json block wins, otherwise the text between the first '{' and the last '}'.
func ExtractJSONSpan(output string) (string, bool) {
	output = strings.TrimSpace(output)
	if m := reFencedJSON.FindStringSubmatch(output); m != nil {
		return m[1], true
	}
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return output[start : end+1], true
}

// ParseModelOutput returns the JSON object found in output.
// It checks well-formedness only; field semantics are validated elsewhere.
func ParseModelOutput(output string) (json.RawMessage, error) {
	span, ok := ExtractJSONSpan(output)
	if !ok {
		return nil, ErrNoJSONSpan
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return json.RawMessage(span), nil
}
