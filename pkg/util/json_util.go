package util

import "strings"

// ExtractJsonObjectByMarker returns the JSON object literal that starts at the
// first '{' after marker. Braces inside string literals are ignored, and a
// backslash inside a string escapes the next character, so `\"` and `\\` never
// toggle string state. ok is false when the marker or the opening brace is
// missing, or the object is never closed.
func ExtractJsonObjectByMarker(text, marker string) (string, bool) {
	markerIdx := strings.Index(text, marker)
	if markerIdx < 0 {
		return "", false
	}
	braceOffset := strings.IndexByte(text[markerIdx:], '{')
	if braceOffset < 0 {
		return "", false
	}
	braceStart := markerIdx + braceOffset

	depth := 0
	inString := false
	escape := false
	for idx := braceStart; idx < len(text); idx++ {
		ch := text[idx]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[braceStart : idx+1], true
			}
		}
	}
	return "", false
}
