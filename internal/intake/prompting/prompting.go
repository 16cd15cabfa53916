// Package prompting holds helpers shared by the prompt builders and the
// line-oriented response parsers of the intake engines.
package prompting

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	userDataBegin = "<<<BEGIN_USER_DATA>>>"
	userDataEnd   = "<<<END_USER_DATA>>>"
)

// SanitizeUserInput drops control characters other than newlines and tabs and
// caps the input at maxLen bytes.
func SanitizeUserInput(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	result := strings.ReplaceAll(sb.String(), userDataEnd, "")
	if maxLen > 0 && len(result) > maxLen {
		cut := maxLen
		for cut > 0 && !isRuneStart(result[cut]) {
			cut--
		}
		result = result[:cut] + "... [truncated]"
	}
	return result
}

// WrapUserData wraps user-provided content with markers to isolate it from instructions.
func WrapUserData(content string) string {
	return fmt.Sprintf("%s\n%s\n%s", userDataBegin, content, userDataEnd)
}

// Fields extracts "KEY: value" lines from a model response. Keys are matched
// case-sensitively after stripping markdown emphasis and list bullets. The
// first occurrence of a key wins; a value may continue on following lines
// until the next recognised key.
func Fields(response string, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	var current string
	for _, raw := range strings.Split(response, "\n") {
		line := cleanLine(raw)
		if key, value, ok := matchKey(line, keys); ok {
			current = ""
			if _, seen := out[key]; seen {
				continue
			}
			out[key] = value
			current = key
			continue
		}
		if current != "" && line != "" {
			out[current] = strings.TrimSpace(out[current] + "\n" + line)
		}
	}
	return out
}

func matchKey(line string, keys []string) (string, string, bool) {
	for _, key := range keys {
		prefix := key + ":"
		if strings.HasPrefix(line, prefix) {
			value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			value = strings.Trim(value, "*")
			return key, strings.TrimSpace(value), true
		}
	}
	return "", "", false
}

func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-• ")
	s = strings.TrimPrefix(s, "**")
	s = strings.Replace(s, ":**", ":", 1)
	return strings.TrimSpace(s)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// YesNo parses a YES/NO answer. ok is false for anything else.
func YesNo(value string) (yes bool, ok bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	v = strings.Trim(v, ".!*[] ")
	switch {
	case v == "YES" || strings.HasPrefix(v, "YES "):
		return true, true
	case v == "NO" || strings.HasPrefix(v, "NO "):
		return false, true
	}
	return false, false
}

// ContainsAny reports whether text contains any of the keywords and returns
// the first one found in list order.
func ContainsAny(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// FirstLine returns the first line of a parsed value.
func FirstLine(value string) string {
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return strings.TrimSpace(value)
}
