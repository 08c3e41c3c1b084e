package wikix

import (
	"regexp"
	"strings"
	"sync"
)

// Store is the process-wide, read-only-after-build template map (C2):
// title -> raw body, plus a sibling title -> title redirect map. It is
// built once, during the preprocessing pass over a dump, and is safe for
// concurrent reads by many extraction workers thereafter; [Store.Add] and
// [Store.AddRaw] are the only mutators of the template and redirect maps,
// and they take the store's write lock.
type Store struct {
	Namespaces *NamespaceTable

	// TemplateNamespace is the configured template-namespace prefix
	// (e.g. "Template:"), discovered from a dump's <siteinfo> key="10"
	// entry, defaulting to "Template:".
	TemplateNamespace string

	mu        sync.RWMutex
	templates map[string]string
	redirects map[string]string

	parseMu sync.Mutex
	parsed  map[string]*Template // lazily-parsed cache, keyed by raw body
}

// NewStore returns an empty Store using ns for title normalization (or a
// default namespace table if ns is nil) and "Template:" as the default
// template namespace.
func NewStore(ns *NamespaceTable) *Store {
	if ns == nil {
		ns = DefaultNamespaceTable()
	}
	return &Store{
		Namespaces:        ns,
		TemplateNamespace: "Template:",
		templates:         make(map[string]string),
		redirects:         make(map[string]string),
		parsed:            make(map[string]*Template),
	}
}

var reRedirect = regexp.MustCompile(`(?is)^\s*#REDIRECT\s*\[\[\s*([^\]\|]+)`)
var reComment = regexp.MustCompile(`(?s)<!--.*?-->`)
var reNoIncludeClosed = regexp.MustCompile(`(?is)<noinclude\b[^>]*>.*?</noinclude\s*>`)
var reNoIncludeUnterminated = regexp.MustCompile(`(?is)<noinclude\b[^>]*>.*$`)
var reIncludeOnlyOpen = regexp.MustCompile(`(?i)<includeonly\s*>`)
var reIncludeOnlyClose = regexp.MustCompile(`(?i)</includeonly\s*>`)
var reOnlyInclude = regexp.MustCompile(`(?is)<onlyinclude\s*>(.*?)</onlyinclude\s*>`)

// Add records a template-namespace page's raw body under title, after
// preprocessing it per spec.md §4.2. It reports whether title already had
// an entry (template or redirect) so the caller can log a redefinition.
func (s *Store) Add(title, rawText string) (redefined bool) {
	if !strings.HasPrefix(strings.ToLower(title), strings.ToLower(s.TemplateNamespace)) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, hadTemplate := s.templates[title]
	_, hadRedirect := s.redirects[title]
	redefined = hadTemplate || hadRedirect

	if m := reRedirect.FindStringSubmatch(rawText); m != nil {
		target := strings.TrimSpace(m[1])
		s.redirects[title] = s.Namespaces.Normalize(target)
		delete(s.templates, title)
		return redefined
	}

	body := preprocessTemplateBody(rawText)
	if strings.TrimSpace(body) == "" {
		delete(s.templates, title)
		delete(s.redirects, title)
		return redefined
	}

	s.templates[title] = body
	delete(s.redirects, title)
	return redefined
}

// preprocessTemplateBody implements spec.md §4.2's body cleanup: strip
// comments, drop <noinclude> (including an unterminated trailing one),
// drop <includeonly> tags while keeping their contents, and if any
// <onlyinclude> sections exist, keep only their concatenated contents.
func preprocessTemplateBody(body string) string {
	body = reComment.ReplaceAllString(body, "")

	if matches := reOnlyInclude.FindAllStringSubmatch(body, -1); len(matches) > 0 {
		var b strings.Builder
		for _, m := range matches {
			b.WriteString(m[1])
		}
		return b.String()
	}

	body = reNoIncludeClosed.ReplaceAllString(body, "")
	body = reNoIncludeUnterminated.ReplaceAllString(body, "")
	body = reIncludeOnlyOpen.ReplaceAllString(body, "")
	body = reIncludeOnlyClose.ReplaceAllString(body, "")
	return body
}

// Lookup resolves title to a raw template body, following at most one
// redirect hop (spec.md §4.2: "no chain following"). It reports found=false
// on a miss.
func (s *Store) Lookup(title string) (body string, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if target, ok := s.redirects[title]; ok {
		title = target
	}
	body, found = s.templates[title]
	return body, found
}

// Parse returns the parsed node sequence for a raw template body, parsing
// and caching it on first use (spec.md §3: "Parsed lazily on first use and
// cached").
func (s *Store) Parse(rawBody string) *Template {
	s.parseMu.Lock()
	defer s.parseMu.Unlock()
	if t, ok := s.parsed[rawBody]; ok {
		return t
	}
	t := ParseTemplate(rawBody)
	s.parsed[rawBody] = t
	return t
}

// Len reports the number of stored templates (for diagnostics/tests).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// Snapshot returns a copy of the title -> preprocessed-body map, for
// serializing the store to a --templates cache file.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.templates))
	for k, v := range s.templates {
		out[k] = v
	}
	return out
}

// AddRaw inserts an already-preprocessed body directly under title,
// bypassing the namespace-prefix gate, redirect detection, and
// preprocessTemplateBody pass Add performs. Used when restoring a store
// from a --templates cache file written by [Store.Snapshot].
func (s *Store) AddRaw(title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[title] = body
}
