package wikix

import "strings"

// PageContext supplies the page-specific values magic words expand to
// (spec.md §4.3's magic-word table). The caller builds one for the page
// currently being processed and passes it to [NewExtractor].
type PageContext struct {
	Title       string // e.g. "Albert Einstein"
	Namespace   string // e.g. "" for main, "Template" for Template:...
	FullTitle   string // Namespace + ":" + Title, or Title if Namespace == ""
	Year        string
	Month       string
	Day         string
}

// magicWord resolves a bare (no-colon) template invocation name against the
// page-specific magic-word table. It reports ok=false for anything not in
// the table, so the caller falls through to a template-store lookup.
func magicWord(pc *PageContext, name string) (string, bool) {
	if pc == nil {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pagename":
		return pc.Title, true
	case "fullpagename":
		return pc.FullTitle, true
	case "namespace":
		return pc.Namespace, true
	case "currentyear":
		return pc.Year, true
	case "currentmonth":
		return pc.Month, true
	case "currentday":
		return pc.Day, true
	case "!":
		return "|", true
	}
	return "", false
}
