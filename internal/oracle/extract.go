package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSON    = errors.New("no json object in response")
	ErrMalformed = errors.New("malformed json in response")
)

// ExtractJSON returns the outermost brace-delimited object of text, from
// the first '{' to the last '}'. Surrounding prose and code fences are
// ignored.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", ErrMalformed
	}
	return candidate, nil
}

// DecodeJSON extracts the object from text and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
