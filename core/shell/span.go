package shell

// Span marks a protected region of a line with inclusive byte offsets.
type Span struct {
	Start int
	End   int
}

// Contains reports whether the offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset <= s.End
}

func anyContains(spans []Span, offset int) bool {
	for _, s := range spans {
		if s.Contains(offset) {
			return true
		}
	}
	return false
}

// QuoteSpans pairs up the unescaped occurrences of quote in line. An
// occurrence without a partner is an error.
func QuoteSpans(line string, quote byte) ([]Span, error) {
	var out []Span
	start := -1
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case quote:
			if start < 0 {
				start = i
				continue
			}
			out = append(out, Span{Start: start, End: i})
			start = -1
		}
	}

	if start >= 0 {
		return nil, parseErr(ErrUnterminatedQuote, line[start:])
	}
	return out, nil
}

// SubshellSpans finds the outermost $(...) regions of line. Parentheses
// nested inside a region belong to it. Single quoted text is skipped because
// no substitution happens there.
func SubshellSpans(line string) ([]Span, error) {
	var out []Span
	depth, start := 0, 0
	quoted := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\':
			i++
		case c == '\'' && depth == 0:
			quoted = !quoted
		case quoted:
			// literal
		case c == '$' && i+1 < len(line) && line[i+1] == '(':
			if depth == 0 {
				start = i
			}
			depth++
			i++
		case c == '(' && depth > 0:
			depth++
		case c == ')' && depth > 0:
			depth--
			if depth == 0 {
				out = append(out, Span{Start: start, End: i})
			}
		}
	}

	if depth > 0 {
		return nil, parseErr(ErrUnterminatedSubshell, line[start:])
	}
	return out, nil
}

// StripComment removes everything from the first unescaped, unquoted # to the
// end of the line.
func StripComment(line string) string {
	var single, double bool
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\':
			i++
		case c == '\'' && !double:
			single = !single
		case c == '"' && !single:
			double = !double
		case c == '#' && !single && !double:
			return line[:i]
		}
	}
	return line
}
