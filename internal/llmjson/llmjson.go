// Package llmjson extracts and repairs JSON payloads embedded in raw model
// output. Models routinely wrap the payload in prose or markdown fences, so
// callers never parse the raw text directly.
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Extract returns the first balanced JSON object substring in raw,
// ignoring braces inside string literals.
func Extract(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

var (
	doubledQuote = regexp.MustCompile(`""([^"]*)""`)
	keySpacing   = regexp.MustCompile(`"\s*:\s*`)
)

// Repair applies a best-effort cleanup to almost-JSON text: doubled quotes,
// stray newlines inside the object, and irregular key:value spacing. It is a
// single bounded pass; callers must not retry beyond it.
func Repair(s string) string {
	s = doubledQuote.ReplaceAllString(s, `"$1"`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = keySpacing.ReplaceAllString(s, `": `)
	return s
}

// Normalize extracts the first JSON object in raw and returns it as valid
// JSON text, applying the single repair pass if the initial parse fails.
func Normalize(raw string) (string, error) {
	payload, err := Extract(raw)
	if err != nil {
		return "", err
	}
	if json.Valid([]byte(payload)) {
		return payload, nil
	}
	repaired := Repair(payload)
	if json.Valid([]byte(repaired)) {
		return repaired, nil
	}
	return "", fmt.Errorf("invalid JSON after repair")
}

// Unmarshal extracts the first JSON object in raw and decodes it into v.
// On a parse failure it applies Repair once and retries before giving up.
func Unmarshal(raw string, v any) error {
	payload, err := Extract(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}
	repaired := Repair(payload)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("parse JSON after repair: %w", err)
	}
	return nil
}
