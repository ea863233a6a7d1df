package memory

import "strings"

const (
	preTag       = "<em>"
	postTag      = "</em>"
	maxFragments = 5
)

// fragments returns the lines of text that contain a query term, with
// every matching word wrapped in <em> tags.
func fragments(text string, terms []string) []string {
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		var sb strings.Builder
		last := 0
		matched := false
		for _, tok := range tokenize(line) {
			if _, ok := want[tok.term]; !ok {
				continue
			}
			matched = true
			sb.WriteString(line[last:tok.start])
			sb.WriteString(preTag)
			sb.WriteString(line[tok.start:tok.end])
			sb.WriteString(postTag)
			last = tok.end
		}
		if !matched {
			continue
		}
		sb.WriteString(line[last:])
		out = append(out, strings.TrimSpace(sb.String()))
		if len(out) == maxFragments {
			break
		}
	}
	return out
}
