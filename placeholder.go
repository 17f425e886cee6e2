package modelsync

import (
	"fmt"
	"strings"
)

// segment is one piece of a parsed message template: literal text or a named placeholder.
type segment struct {
	text string
	name string // non-empty for placeholders
}

type parsedMessage struct {
	role     Role
	segments []segment
	vars     []string // pre-computed for Variables and missing-variable checks
}

// parseTemplate splits content into literal text and {name} placeholders.
// Doubled braces are literals; a lone '}' or an unclosed '{' is an error.
func parseTemplate(content string) ([]segment, error) {
	var (
		out []segment
		buf strings.Builder
	)
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, segment{text: buf.String()})
			buf.Reset()
		}
	}
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch c {
		case '{':
			if i+1 < len(content) && content[i+1] == '{' {
				buf.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(content[i+1:], "{}")
			if end < 0 || content[i+1+end] != '}' {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			name := content[i+1 : i+1+end]
			if !isIdentifier(name) {
				return nil, fmt.Errorf("unsupported placeholder %q at offset %d", name, i)
			}
			flush()
			out = append(out, segment{name: name})
			i += end + 1
		case '}':
			if i+1 < len(content) && content[i+1] == '}' {
				buf.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("single '}' at offset %d", i)
		default:
			buf.WriteByte(c)
		}
	}
	flush()
	return out, nil
}

// isIdentifier reports whether s is a plain placeholder name: letters, digits and '_', not starting with a digit.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// placeholderNames returns unique placeholder names in order of first appearance.
func placeholderNames(segs []segment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range segs {
		if s.name != "" && !seen[s.name] {
			seen[s.name] = true
			out = append(out, s.name)
		}
	}
	return out
}

func renderSegments(segs []segment, vars map[string]string) string {
	var b strings.Builder
	for _, s := range segs {
		if s.name == "" {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(vars[s.name])
	}
	return b.String()
}
