package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseAIJSON extracts and parses JSON from oracle output. Despite strict
// JSON-only instructions the model may wrap its payload in markdown fences or
// surrounding prose, so parsing falls through a chain of strategies:
// direct parse, fenced block, balanced-brace substring, cleanup pass.
// This leniency is confined to the oracle boundary; nothing else in the
// pipeline accepts loosely shaped input.
func ParseAIJSON(input string, target interface{}) error {
	if input == "" {
		return fmt.Errorf("empty input")
	}

	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	if extracted := extractFromMarkdown(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	if extracted := extractJSONFromText(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		if cleaned := cleanJSON(extracted); cleaned != "" {
			if err := json.Unmarshal([]byte(cleaned), target); err == nil {
				return nil
			}
		}
	}

	if cleaned := cleanJSON(input); cleaned != "" {
		if err := json.Unmarshal([]byte(cleaned), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// extractFromMarkdown extracts JSON from ```json ... ``` or bare ``` blocks.
func extractFromMarkdown(input string) string {
	re1 := regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	if matches := re1.FindStringSubmatch(input); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	re2 := regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
	if matches := re2.FindStringSubmatch(input); len(matches) > 1 {
		content := strings.TrimSpace(matches[1])
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			return content
		}
	}

	return ""
}

// extractJSONFromText finds the first balanced JSON object or array inside
// surrounding prose.
func extractJSONFromText(input string) string {
	if start := strings.Index(input, "{"); start >= 0 {
		if extracted := extractBalanced(input[start:], '{', '}'); extracted != "" {
			return extracted
		}
	}
	if start := strings.Index(input, "["); start >= 0 {
		if extracted := extractBalanced(input[start:], '[', ']'); extracted != "" {
			return extracted
		}
	}
	// Last resort: slice between the first opening and last closing brace,
	// even if the payload in between is not brace-balanced.
	start := strings.Index(input, "{")
	end := strings.LastIndex(input, "}")
	if start >= 0 && end > start {
		return input[start : end+1]
	}
	return ""
}

// extractBalanced returns the prefix of input spanning one balanced
// open/close pair, honoring string literals and escapes.
func extractBalanced(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// cleanJSON fixes the malformations the oracle produces most often: trailing
// commas, unquoted keys, stray control characters, a BOM prefix.
func cleanJSON(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "\ufeff")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
	s = controlCharRe.ReplaceAllString(s, "")
	return s
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
