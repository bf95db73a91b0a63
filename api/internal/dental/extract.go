package dental

import "strings"

// Extraction tells how a JSON span was located in a model response.
type Extraction int

const (
	ExtractNone Extraction = iota
	// ExtractBalanced: first object whose brace depth returns to zero.
	ExtractBalanced
	// ExtractGreedy: first '{' through last '}', used when braces never balance.
	ExtractGreedy
)

func (e Extraction) String() string {
	switch e {
	case ExtractBalanced:
		return "balanced"
	case ExtractGreedy:
		return "greedy"
	default:
		return "none"
	}
}

// ExtractJSON returns the JSON object embedded in raw model text.
// Braces inside JSON string literals do not count towards nesting.
func ExtractJSON(raw string) (string, Extraction) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", ExtractNone
	}
	if end, ok := balancedEnd(raw, start); ok {
		return raw[start : end+1], ExtractBalanced
	}
	end := strings.LastIndexByte(raw, '}')
	if end < start {
		return "", ExtractNone
	}
	return raw[start : end+1], ExtractGreedy
}

func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return i, true
			}
		}
	}
	return 0, false
}
