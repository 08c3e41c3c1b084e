package wikix

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NamespaceTable maps namespace names (as declared in a dump's <siteinfo>
// <namespace> elements) to their canonical casing, and is consulted by
// [NamespaceTable.Normalize] and [NamespaceTable.FullyQualifiedTemplateTitle]
// to decide whether a title's colon-prefix names a real namespace.
//
// [DefaultNamespaceTable] returns a table seeded with the standard MediaWiki
// namespaces (the same set a dump's <siteinfo> almost always declares). A
// zero-value table holds no names and recognizes only "Template" until
// [NamespaceTable.Add] is called on it.
type NamespaceTable struct {
	byName map[string]string // lowercase name -> canonical name
}

// standardNamespaces lists the namespace names declared by a stock
// MediaWiki install's <siteinfo>, keyed by canonical casing.
var standardNamespaces = []string{
	"Media", "Special", "Talk", "User", "User talk",
	"Wikipedia", "Wikipedia talk", "File", "File talk",
	"MediaWiki", "MediaWiki talk", "Template", "Template talk",
	"Help", "Help talk", "Category", "Category talk",
	"Portal", "Portal talk", "Book", "Book talk",
	"Draft", "Draft talk", "Education Program", "Education Program talk",
	"TimedText", "TimedText talk", "Module", "Module talk",
	"Gadget", "Gadget talk", "Gadget definition", "Gadget definition talk",
}

// DefaultNamespaceTable returns a table seeded with the standard MediaWiki
// namespace set, ready to be extended by [NamespaceTable.Add] as a dump's
// <siteinfo> is parsed.
func DefaultNamespaceTable() *NamespaceTable {
	t := &NamespaceTable{byName: make(map[string]string, len(standardNamespaces))}
	for _, name := range standardNamespaces {
		t.Add(name)
	}
	return t
}

// Add registers name as a known namespace, keyed case-insensitively.
func (t *NamespaceTable) Add(name string) {
	if t.byName == nil {
		t.byName = make(map[string]string)
	}
	t.byName[strings.ToLower(name)] = name
}

// lookup returns the canonical casing of prefix and whether it is known.
// A nil or empty table falls back to recognizing only "Template", so
// title utilities degrade gracefully without a populated dump.
func (t *NamespaceTable) lookup(prefix string) (string, bool) {
	key := strings.ToLower(prefix)
	if t != nil && t.byName != nil {
		if canon, ok := t.byName[key]; ok {
			return canon, true
		}
		return "", false
	}
	if key == "template" {
		return "Template", true
	}
	return "", false
}

// Ucfirst upper-cases the first code point of s and leaves the rest
// unchanged.
func Ucfirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Lcfirst lower-cases the first code point of s and leaves the rest
// unchanged.
func Lcfirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// collapseSpacing trims leading/trailing spaces and underscores from s and
// collapses interior runs of spaces/underscores to a single space.
func collapseSpacing(s string) string {
	s = strings.Trim(s, " _")
	var b strings.Builder
	inRun := false
	for _, r := range s {
		if r == ' ' || r == '_' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize canonicalizes a page or template title: it trims and collapses
// whitespace/underscores, and if the title has a namespace prefix known to
// t, outputs "NS:UcFirst(rest)"; otherwise it outputs
// "UcFirst(prefix): UcFirst(rest)" (note the space, distinguishing an
// unrecognized prefix from a real namespace). A title with no colon
// becomes UcFirst(title). Normalize is idempotent (spec.md §8 P4).
func (t *NamespaceTable) Normalize(title string) string {
	title = collapseSpacing(title)
	if title == "" {
		return title
	}

	if i := strings.IndexByte(title, ':'); i > 0 {
		prefix := title[:i]
		rest := strings.TrimLeft(title[i+1:], " ")
		if rest == "" {
			return Ucfirst(prefix)
		}
		if canon, ok := t.lookup(prefix); ok {
			return canon + ":" + Ucfirst(rest)
		}
		return Ucfirst(prefix) + ": " + Ucfirst(rest)
	}

	return Ucfirst(title)
}

// FullyQualifiedTemplateTitle resolves a raw {{Title}} invocation name to a
// canonical template-store key: a leading ":" forces the main namespace
// (stripped, first letter upper-cased); a prefix known to t is kept as-is;
// anything else is assumed to live in the template namespace and gets
// "Template:" prepended. An empty title is reported via ok=false so the
// caller can log it (spec.md §7.7).
func (t *NamespaceTable) FullyQualifiedTemplateTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}

	if strings.HasPrefix(title, ":") {
		rest := strings.TrimSpace(title[1:])
		if rest == "" {
			return "", false
		}
		return t.Normalize(rest), true
	}

	if i := strings.IndexByte(title, ':'); i > 0 {
		if _, ok := t.lookup(title[:i]); ok {
			return t.Normalize(title), true
		}
	}

	return t.Normalize("Template:" + title), true
}
