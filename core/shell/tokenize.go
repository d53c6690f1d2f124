package shell

// protectedSpans collects every region of line that must not be split.
func protectedSpans(line string) ([]Span, error) {
	single, err := QuoteSpans(line, '\'')
	if err != nil {
		return nil, err
	}
	double, err := QuoteSpans(line, '"')
	if err != nil {
		return nil, err
	}
	subshells, err := SubshellSpans(line)
	if err != nil {
		return nil, err
	}

	spans := append(single, double...)
	return append(spans, subshells...), nil
}

// Split breaks a comment-free, trimmed line into words on spaces that are
// outside quotes and subshells. Quote characters stay in the words.
func Split(line string) ([]string, error) {
	if line == "" {
		return nil, nil
	}

	spans, err := protectedSpans(line)
	if err != nil {
		return nil, err
	}

	var tokens []string
	prev := 0
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\':
			// An escaped space is part of the word.
			i++
		case line[i] != ' ' || anyContains(spans, i):
		default:
			if i > prev {
				tokens = append(tokens, line[prev:i])
			}
			prev = i + 1
		}
	}

	if prev < len(line) {
		tokens = append(tokens, line[prev:])
	}
	return tokens, nil
}
