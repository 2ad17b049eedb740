package sqlexec

import (
	"strings"
	"unicode"

	"github.com/xiaot623/gogo/datachat/internal/policy"
)

// analyze scans a statement once, skipping string literals, quoted
// identifiers and comments, and reports its leading keyword, how many
// non-empty statements it holds and which functions it calls.
func analyze(query string) policy.Input {
	in := policy.Input{Query: query, Keyword: leadingKeyword(query)}

	var (
		runes     = []rune(query)
		current   strings.Builder
		functions []string
		seen      = map[string]bool{}
	)
	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			in.StatementCount++
		}
		current.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' || r == '"' || r == '`' || r == '[':
			closer := r
			if r == '[' {
				closer = ']'
			}
			current.WriteRune(r)
			for i++; i < len(runes); i++ {
				current.WriteRune(runes[i])
				if runes[i] == closer {
					// Doubled quote characters escape themselves.
					if closer != ']' && i+1 < len(runes) && runes[i+1] == closer {
						i++
						current.WriteRune(runes[i])
						continue
					}
					break
				}
			}
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			current.WriteRune(' ')
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				i++
			}
			i++
			current.WriteRune(' ')
		case r == ';':
			flush()
		case isIdentStart(r):
			start := i
			for i+1 < len(runes) && isIdentPart(runes[i+1]) {
				i++
			}
			word := string(runes[start : i+1])
			current.WriteString(word)
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && runes[j] == '(' {
				name := strings.ToUpper(word)
				if !seen[name] {
					seen[name] = true
					functions = append(functions, name)
				}
			}
		default:
			current.WriteRune(r)
		}
	}
	flush()

	in.Functions = functions
	return in
}

// leadingKeyword returns the first word of the trimmed statement, upper-cased.
func leadingKeyword(query string) string {
	trimmed := strings.TrimSpace(query)
	end := strings.IndexFunc(trimmed, func(r rune) bool { return !isIdentPart(r) })
	if end < 0 {
		end = len(trimmed)
	}
	return strings.ToUpper(trimmed[:end])
}

// hasSelectPrefix is the first gate: the trimmed, case-folded text must
// begin with SELECT.
func hasSelectPrefix(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
