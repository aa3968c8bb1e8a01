package digest

import "strings"

// Chunks splits a rendered body into ordered pieces of at most max
// characters of section content, splitting only at blank-line boundaries
// so no logical section is broken across messages. A single section
// larger than max becomes its own oversized chunk. The two-character
// seams between sections are not counted against the budget; the slack
// between the budget and Telegram's 4096-character hard limit absorbs
// them.
func Chunks(body string, max int) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if len(body) <= max {
		return []string{body}
	}

	sections := strings.Split(body, "\n\n")

	var chunks []string
	var current []string
	var size int

	for _, section := range sections {
		if size > 0 && size+len(section) > max {
			chunks = append(chunks, flush(current))
			current = current[:0]
			size = 0
		}
		current = append(current, section)
		size += len(section)
	}
	if size > 0 {
		chunks = append(chunks, flush(current))
	}

	return chunks
}

func flush(sections []string) string {
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}
