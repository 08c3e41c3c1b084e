package wikix

import (
	"regexp"
	"strings"
)

var reHeading = regexp.MustCompile(`^(={1,6})\s*(.*?)\s*(={1,6})\s*$`)

// compactParagraphs implements spec.md §4.5.1: split cleaned text into
// lines, resolve deferred section headings (an empty section, i.e. a
// heading followed only by more/deeper headings, is discarded entirely),
// drop indent/list/table-fragment lines per opts, and drop
// parenthesized-only or punctuation-only lines.
func compactParagraphs(text string, opts CleanOptions) []string {
	var out []string
	var pendingHeadings []string
	var pendingLevel int

	flushHeadings := func() {
		for _, h := range pendingHeadings {
			out = append(out, h)
		}
		pendingHeadings = nil
		pendingLevel = 0
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, " \t")

		if m := reHeading.FindStringSubmatch(trimmed); m != nil && len(m[1]) == len(m[3]) {
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			if !opts.Sections {
				continue
			}
			if title == "" {
				continue
			}
			if len(title) > 0 {
				last := title[len(title)-1]
				if last != '!' && last != '?' {
					title += "."
				}
			}
			if pendingLevel != 0 && level > pendingLevel {
				// Deeper heading than the one already pending: drop it,
				// keep the shallower pending heading.
				continue
			}
			pendingHeadings = []string{title}
			pendingLevel = level
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			continue
		}

		if len(trimmed) > 0 && (trimmed[0] == '*' || trimmed[0] == '#' || trimmed[0] == ';') {
			if !opts.HTML {
				continue
			}
			content := strings.TrimSpace(trimmed[1:])
			if content == "" {
				continue
			}
			flushHeadings()
			out = append(out, "<li>"+content+"</li>")
			continue
		}

		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "|") || strings.HasSuffix(trimmed, "}") {
			continue
		}

		if isParenOnly(trimmed) || isPunctOnly(trimmed) {
			continue
		}

		if strings.TrimSpace(trimmed) == "" {
			continue
		}

		flushHeadings()
		out = append(out, trimmed)
	}

	return out
}

func isParenOnly(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	return true
}

var rePunctOnly = regexp.MustCompile(`^[.\-–—\s]+$`)

func isPunctOnly(s string) bool {
	return s != "" && rePunctOnly.MatchString(s)
}
