package engine

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// payloadKeys are tried first when looking for the textual field of a
// wrapper document that holds the actual findings payload.
var payloadKeys = []string{"response", "result", "output", "content", "text", "message"}

// ExtractFindings recovers a validated finding list from raw engine output.
// It runs a chain of strategies, each attempted only if the previous one
// failed, and never returns an error: malformed output degrades to an empty
// slice rather than failing the review.
//
//  1. Parse the whole output as a JSON document; if a textual field holds
//     the payload, extract the first bracketed array inside it and parse.
//  2. Parse the whole output directly as a JSON array.
//  3. Scan the raw text for the first balanced [...] substring and parse.
//
// Findings failing schema validation are dropped individually, never fatal
// to the batch.
func ExtractFindings(raw string, logger *slog.Logger) []core.Finding {
	if logger == nil {
		logger = slog.Default()
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if findings, ok := extractFromDocument(raw, logger); ok {
		return findings
	}
	if findings, ok := decodeFindings(raw, logger); ok {
		return findings
	}
	if arr := firstArray(raw); arr != "" {
		if findings, ok := decodeFindings(arr, logger); ok {
			return findings
		}
	}

	logger.Warn("no recovery strategy matched engine output", "bytes", len(raw))
	return nil
}

// extractFromDocument handles output of the shape
// {"response": "noise [ ...findings... ] noise"}.
func extractFromDocument(raw string, logger *slog.Logger) ([]core.Finding, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false
	}

	for _, key := range orderedKeys(doc) {
		var text string
		if err := json.Unmarshal(doc[key], &text); err != nil {
			continue
		}
		arr := firstArray(text)
		if arr == "" {
			continue
		}
		if findings, ok := decodeFindings(arr, logger); ok {
			return findings, true
		}
	}
	return nil, false
}

// orderedKeys yields the well-known payload keys first, then the remaining
// keys sorted, so extraction is deterministic.
func orderedKeys(doc map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(doc))
	seen := make(map[string]bool, len(doc))
	for _, key := range payloadKeys {
		if _, ok := doc[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	var rest []string
	for key := range doc {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// decodeFindings parses a JSON array and keeps only findings that pass
// schema validation. The boolean reports whether the array itself parsed.
func decodeFindings(raw string, logger *slog.Logger) ([]core.Finding, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}

	findings := make([]core.Finding, 0, len(items))
	for _, item := range items {
		var f core.Finding
		if err := json.Unmarshal(item, &f); err != nil {
			logger.Warn("dropping unparsable finding", "error", err)
			continue
		}
		if err := f.Validate(); err != nil {
			logger.Warn("dropping invalid finding", "error", err)
			continue
		}
		findings = append(findings, f)
	}
	return findings, true
}

// firstArray returns the first balanced [...] substring of s, honoring JSON
// string quoting and escapes, or "" when none exists.
func firstArray(s string) string {
	start := strings.IndexByte(s, '[')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
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
			case '[':
				if !inString {
					depth++
				}
			case ']':
				if !inString {
					depth--
					if depth == 0 {
						return s[start : i+1]
					}
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next < 0 {
			return ""
		}
		start += 1 + next
	}
	return ""
}
