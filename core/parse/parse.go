package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when content holds nothing that looks like JSON.
var ErrNoJSON = errors.New("no JSON value found in content")

// ParseStringAs parses content into T.
//
// Strings receive the trimmed content unchanged. Booleans and numbers are
// parsed with strconv after stripping surrounding quotes. Every other kind is
// decoded as JSON from, in order: fenced code blocks, the whole content, and
// the outermost {...} or [...] span. Each candidate is tried strictly first,
// then after jsonrepair.
//
// Example:
//
//	type Verdict struct {
//	    Label string  `json:"label"`
//	    Score float64 `json:"score"`
//	}
//
//	verdict, err := ParseStringAs[Verdict]("Sure! ```json\n{'label': 'spam', 'score': 0.9,}\n```")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)
		return result, nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if err := parseScalar(target, unquote(content)); err != nil {
			return result, fmt.Errorf("failed to parse %q as %s: %w", content, target.Kind(), err)
		}
		return result, nil
	}

	candidates := jsonCandidates(content)
	if len(candidates) == 0 {
		return result, fmt.Errorf("failed to parse content as %T: %w", result, ErrNoJSON)
	}

	var errs []error
	for _, candidate := range candidates {
		var attempt T
		if err := decodeTolerant(candidate, &attempt); err != nil {
			errs = append(errs, err)
			continue
		}
		return attempt, nil
	}
	return result, fmt.Errorf("failed to parse content as %T: %w", result, errors.Join(errs...))
}

// decodeTolerant unmarshals candidate, falling back to a repaired copy.
func decodeTolerant(candidate string, target any) error {
	err := json.Unmarshal([]byte(candidate), target)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return fmt.Errorf("unmarshal: %w (repair failed: %v)", err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("unmarshal repaired JSON: %w", err)
	}
	return nil
}

// jsonCandidates lists substrings of content worth decoding, most specific
// first and without duplicates.
func jsonCandidates(content string) []string {
	var candidates []string
	seen := map[string]bool{}
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || seen[candidate] {
			return
		}
		seen[candidate] = true
		candidates = append(candidates, candidate)
	}

	for _, block := range fencedBlocks(content) {
		add(block)
	}
	if startsLikeJSON(content) {
		add(content)
	}
	if span, ok := outermostSpan(content); ok {
		add(span)
	}
	return candidates
}

// fencedBlocks returns the bodies of ``` fenced code blocks. The language tag
// after the opening fence is dropped; an unterminated block runs to the end.
func fencedBlocks(content string) []string {
	var blocks []string
	rest := content
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			return blocks
		}
		rest = rest[start+3:]
		if newline := strings.IndexByte(rest, '\n'); newline >= 0 && !startsLikeJSON(rest[:newline]) {
			rest = rest[newline+1:]
		}

		end := strings.Index(rest, "```")
		if end < 0 {
			return append(blocks, rest)
		}
		blocks = append(blocks, rest[:end])
		rest = rest[end+3:]
	}
}

// outermostSpan returns the text from the first '{' or '[' to the last
// matching closer. A missing closer yields the tail, which jsonrepair can
// often complete.
func outermostSpan(content string) (string, bool) {
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if content[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(content, closer)
	if end < start {
		return content[start:], true
	}
	return content[start : end+1], true
}

func startsLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func parseScalar(target reflect.Value, s string) error {
	switch target.Kind() {
	case reflect.Bool:
		value, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return err
		}
		target.SetBool(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err := strconv.ParseInt(s, 10, target.Type().Bits())
		if err != nil {
			return err
		}
		target.SetInt(value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err := strconv.ParseUint(s, 10, target.Type().Bits())
		if err != nil {
			return err
		}
		target.SetUint(value)
	case reflect.Float32, reflect.Float64:
		value, err := strconv.ParseFloat(s, target.Type().Bits())
		if err != nil {
			return err
		}
		target.SetFloat(value)
	}
	return nil
}
