package shell

import (
	"strings"
)

// Lookup resolves a variable name.
type Lookup func(name string) (string, bool)

// Substituter replaces $name references in words.
type Substituter struct {
	// Lookups are consulted in order, the first hit wins. Names nobody knows
	// expand to the empty string.
	Lookups []Lookup
}

// NewSubstituter creates a Substituter over the given lookups.
func NewSubstituter(lookups ...Lookup) *Substituter {
	return &Substituter{Lookups: lookups}
}

// Resolve returns the value of a variable.
func (s *Substituter) Resolve(name string) string {
	for _, lookup := range s.Lookups {
		if val, ok := lookup(name); ok {
			return val
		}
	}
	return ""
}

// isNameEnd reports whether c terminates a variable name.
func isNameEnd(c byte) bool {
	switch c {
	case '$', ' ', '\'', '"':
		return true
	}
	return false
}

// Expand substitutes variables in a single word and removes quoting.
//
// A backslash makes the next byte literal. Single quotes switch substitution
// off and on again and are dropped, double quotes are dropped. $( is left
// alone.
func (s *Substituter) Expand(word string) string {
	var out strings.Builder
	enabled := true

	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case c == '\\':
			if i+1 < len(word) {
				out.WriteByte(word[i+1])
				i++
			}
		case c == '\'':
			enabled = !enabled
		case c == '"':
		case c == '$' && enabled && !strings.HasPrefix(word[i+1:], "("):
			end := i + 1
			for end < len(word) && !isNameEnd(word[end]) {
				end++
			}
			// An empty name resolves to nothing like any unknown name.
			if name := word[i+1 : end]; name != "" {
				out.WriteString(s.Resolve(name))
			}
			i = end - 1
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}
