package wikix

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// CleanOptions controls the optional behaviors of [CleanMarkup] (spec.md
// §4.5 and §6's CLI surface).
type CleanOptions struct {
	Templates bool // expand {{...}} via an Extractor instead of dropping it
	Links     bool // emit <a href=...> instead of bare label text
	Sections  bool // keep section headings
	HTML      bool // emit list lines as <li> elements; the <b>/<i> tags written for bold/italic are removed again by the ignored-tag pass

	// Namespaces accepted for internal links, lower-cased, without a
	// trailing colon (default {"w", "wiktionary", "wikt"}).
	AcceptedNamespaces map[string]bool
}

func defaultAcceptedNamespaces() map[string]bool {
	return map[string]bool{"w": true, "wiktionary": true, "wikt": true}
}

// cleanState threads the per-article placeholder counters through the
// cleaning passes (spec.md §4.5 step 10).
type cleanState struct {
	opts      CleanOptions
	mathN     int
	codeN     int
}

// CleanMarkup runs the deterministic pass pipeline of spec.md §4.5 over raw
// wikitext, returning the compacted list of output lines (spec.md §4.5.1).
// If ex is non-nil and opts.Templates is set, templates are expanded via
// ex.Expand; otherwise {{...}} and {|...|} are dropped without expansion.
func CleanMarkup(markup string, opts CleanOptions, ex *Extractor) []string {
	if opts.AcceptedNamespaces == nil {
		opts.AcceptedNamespaces = defaultAcceptedNamespaces()
	}
	st := &cleanState{opts: opts}

	text := markup
	if opts.Templates && ex != nil {
		text = ex.Expand(text)
	} else {
		text = dropNested(text, "{{", "}}")
	}
	text = dropNested(text, "{|", "|}")

	text = st.stripExternalLinks(text)
	text = st.stripInternalLinks(text)
	text = reBehaviorSwitch.ReplaceAllString(text, "")

	text = html.UnescapeString(text)
	text = html.UnescapeString(text)

	text = st.cleanEmphasis(text)
	text = st.dropHTMLSpans(text)
	text = st.dropElements(text)
	text = st.placeholders(text)
	text = normalizeGlyphs(text)

	return compactParagraphs(text, opts)
}

// dropNested removes every balanced, possibly-nested open/close span
// (e.g. "{{"/"}}" or "{|"/"|}"), used when template/table expansion is
// disabled (spec.md §4.5 steps 1-2).
func dropNested(text, open, close string) string {
	for {
		spans := FindBalanced(text, []string{open}, []string{close})
		if len(spans) == 0 {
			return text
		}
		var b strings.Builder
		cur := 0
		for _, sp := range spans {
			b.WriteString(text[cur:sp.Start])
			cur = sp.End
		}
		b.WriteString(text[cur:])
		next := b.String()
		if next == text {
			return next
		}
		text = next
	}
}

var reExternalLinkLabeled = regexp.MustCompile(`\[((?:https?|ftp|news|irc)://[^\s\]]+)\s+([^\]]*)\]`)
var reExternalLinkBare = regexp.MustCompile(`\[(https?|ftp|news|irc)://[^\s\]]+\]`)

func (st *cleanState) stripExternalLinks(text string) string {
	if st.opts.Links {
		text = reExternalLinkLabeled.ReplaceAllString(text, `<a href="$1">$2</a>`)
	} else {
		text = reExternalLinkLabeled.ReplaceAllString(text, "$2")
	}
	text = reExternalLinkBare.ReplaceAllString(text, "")
	return text
}

var reTrailingWord = regexp.MustCompile(`^[a-zA-Z]+`)

// stripInternalLinks implements spec.md §4.5 step 4.
func (st *cleanState) stripInternalLinks(text string) string {
	spans := FindMatchingBraces(text, 2)
	var links []Span
	for _, sp := range spans {
		if sp.Kind == KindLink {
			links = append(links, sp)
		}
	}
	if len(links) == 0 {
		return text
	}

	var b strings.Builder
	cur := 0
	for _, sp := range links {
		b.WriteString(text[cur:sp.Start])
		inner := text[sp.Start+2 : sp.End-2]

		after := ""
		rest := text
		end := sp.End
		if end < len(text) {
			trail := reTrailingWord.FindString(rest[end:])
			after = trail
			end += len(trail)
		}

		if rendered, ok := st.renderInternalLink(inner, after); ok {
			b.WriteString(rendered)
		}
		cur = end
	}
	b.WriteString(text[cur:])
	return b.String()
}

func (st *cleanState) renderInternalLink(inner, trail string) (string, bool) {
	droppedFilePrefix := false
	if strings.HasPrefix(inner, ":") {
		inner = inner[1:]
		droppedFilePrefix = true
	}

	idx := strings.LastIndex(inner, "|")
	title := inner
	label := inner
	if idx >= 0 {
		title = inner[:idx]
		label = inner[idx+1:]
	}

	if i := strings.IndexByte(title, ':'); i > 0 && !droppedFilePrefix {
		ns := strings.ToLower(strings.TrimSpace(title[:i]))
		if !st.opts.AcceptedNamespaces[ns] {
			return "", false
		}
	} else if droppedFilePrefix {
		ns := ""
		if i := strings.IndexByte(title, ':'); i > 0 {
			ns = strings.ToLower(strings.TrimSpace(title[:i]))
		}
		if !st.opts.AcceptedNamespaces[ns] {
			return "", false
		}
	}

	if st.opts.Links {
		return fmt.Sprintf(`<a href="%s">%s</a>%s`, urlEncode(title), label, trail), true
	}
	return label + trail, true
}

var reBehaviorSwitch = regexp.MustCompile(`__[A-Z]+__`)

var (
	reBoldItalic = regexp.MustCompile(`'''''(.*?)'''''`)
	reBold       = regexp.MustCompile(`'''(.*?)'''`)
	reQuoteItal  = regexp.MustCompile(`''"([^"]*)"''`)
	reItalic     = regexp.MustCompile(`''([^']*)''`)
	reDoubleQuot = regexp.MustCompile(`""([^"]*)""`)
)

// cleanEmphasis implements spec.md §4.5 step 7.
func (st *cleanState) cleanEmphasis(text string) string {
	if st.opts.HTML {
		text = reBoldItalic.ReplaceAllString(text, "<b><i>$1</i></b>")
		text = reBold.ReplaceAllString(text, "<b>$1</b>")
	} else {
		text = reBoldItalic.ReplaceAllString(text, "$1")
		text = reBold.ReplaceAllString(text, "$1")
	}
	text = reQuoteItal.ReplaceAllString(text, `"$1"`)
	text = reItalic.ReplaceAllString(text, `"$1"`)
	text = reDoubleQuot.ReplaceAllString(text, `"$1"`)
	text = strings.ReplaceAll(text, "'''", "")
	text = strings.ReplaceAll(text, "''", "")
	return text
}

var selfClosingTags = map[string]bool{
	"br": true, "hr": true, "nobr": true, "ref": true, "references": true, "nowiki": true,
}

var ignoredPairedTags = map[string]bool{
	"b": true, "big": true, "blockquote": true, "center": true, "cite": true,
	"div": true, "em": true, "font": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"hiero": true, "i": true, "kbd": true, "nowiki": true, "p": true, "plaintext": true,
	"s": true, "span": true, "strike": true, "strong": true, "sub": true, "sup": true,
	"tt": true, "u": true, "var": true,
}

var reComment2 = regexp.MustCompile(`(?s)<!--.*?-->`)
var reSelfClose = regexp.MustCompile(`(?i)<(\w+)\b[^>]*/?>`)
var rePairedOpen = regexp.MustCompile(`(?i)^<(\w+)(\s[^>]*)?>$`)
var rePairedClose = regexp.MustCompile(`(?i)^</(\w+)\s*>$`)

// dropHTMLSpans implements spec.md §4.5 step 8: drop comments,
// self-closing/void tags, and paired tags from the "ignored" set (keeping
// their contents), by finding tag positions and bulk-removing matched
// ranges via a sorted merge.
func (st *cleanState) dropHTMLSpans(text string) string {
	text = reComment2.ReplaceAllString(text, "")

	type tagPos struct{ start, end int }
	var drops []tagPos

	tag := regexp.MustCompile(`(?i)</?[a-zA-Z][a-zA-Z0-9]*\b[^>]*>`)
	matches := tag.FindAllStringIndex(text, -1)

	var openStack []struct {
		name  string
		start int
	}
	aDroppable := !st.opts.Links

	for _, m := range matches {
		raw := text[m[0]:m[1]]
		if sm := reSelfClose.FindStringSubmatch(raw); sm != nil && !strings.HasPrefix(raw, "</") {
			name := strings.ToLower(sm[1])
			// An open <ref> or <references> tag that is not self-closed is
			// left for dropElements, which removes it with its content.
			if selfClosingTags[name] && (strings.HasSuffix(raw, "/>") || !slices.Contains(discardedElements, name)) {
				drops = append(drops, tagPos{m[0], m[1]})
				continue
			}
		}
		if strings.HasPrefix(raw, "</") {
			nameM := regexp.MustCompile(`(?i)^</([a-zA-Z0-9]+)`).FindStringSubmatch(raw)
			if nameM == nil {
				continue
			}
			name := strings.ToLower(nameM[1])
			if isIgnoredTag(name, aDroppable) {
				for i := len(openStack) - 1; i >= 0; i-- {
					if openStack[i].name == name {
						drops = append(drops, tagPos{openStack[i].start, openStack[i].start})
						drops = append(drops, tagPos{m[0], m[1]})
						openStack = append(openStack[:i], openStack[i+1:]...)
						break
					}
				}
			}
			continue
		}
		nameM := regexp.MustCompile(`(?i)^<([a-zA-Z0-9]+)`).FindStringSubmatch(raw)
		if nameM == nil {
			continue
		}
		name := strings.ToLower(nameM[1])
		if isIgnoredTag(name, aDroppable) {
			openStack = append(openStack, struct {
				name  string
				start int
			}{name, m[0]})
			drops = append(drops, tagPos{m[0], m[1]})
		}
	}

	if len(drops) == 0 {
		return text
	}
	sort.Slice(drops, func(i, j int) bool { return drops[i].start < drops[j].start })

	var b strings.Builder
	cur := 0
	for _, d := range drops {
		if d.start < cur {
			continue
		}
		b.WriteString(text[cur:d.start])
		cur = d.end
	}
	b.WriteString(text[cur:])
	return b.String()
}

func isIgnoredTag(name string, aDroppable bool) bool {
	if ignoredPairedTags[name] {
		return true
	}
	return aDroppable && name == "a"
}

var discardedElements = []string{
	"gallery", "timeline", "noinclude", "pre", "table", "tr", "td", "th", "caption",
	"form", "input", "select", "option", "textarea", "button",
	"ul", "ol", "li", "dl", "dt", "dd",
	"ref", "references", "img", "imagemap", "source", "small",
}

// dropElements implements spec.md §4.5 step 9: nested-aware removal of
// whole elements (tag plus content) for the discarded-element set.
func (st *cleanState) dropElements(text string) string {
	for _, name := range discardedElements {
		text = dropElement(text, name)
	}
	return text
}

func dropElement(text, name string) string {
	openRe := regexp.MustCompile(`(?i)<` + name + `\b[^>]*?(/)?>`)
	closeRe := regexp.MustCompile(`(?i)</` + name + `\s*>`)

	for {
		opens := openRe.FindAllStringIndex(text, -1)
		if len(opens) == 0 {
			return text
		}
		first := opens[0]
		selfClosed := text[first[1]-2] == '/'
		if selfClosed {
			text = text[:first[0]] + text[first[1]:]
			continue
		}
		closeLoc := closeRe.FindStringIndex(text[first[1]:])
		if closeLoc == nil {
			text = text[:first[0]] + text[first[1]:]
			continue
		}
		end := first[1] + closeLoc[1]
		text = text[:first[0]] + text[end:]
	}
}

var reMath = regexp.MustCompile(`(?is)<math\b[^>]*>.*?</math\s*>`)
var reCode = regexp.MustCompile(`(?is)<code\b[^>]*>.*?</code\s*>`)

// placeholders implements spec.md §4.5 step 10.
func (st *cleanState) placeholders(text string) string {
	text = reMath.ReplaceAllStringFunc(text, func(string) string {
		st.mathN++
		return fmt.Sprintf("formula_%d", st.mathN)
	})
	text = reCode.ReplaceAllStringFunc(text, func(string) string {
		st.codeN++
		return fmt.Sprintf("codice_%d", st.codeN)
	})
	return text
}

var (
	reMultiSpace  = regexp.MustCompile(`[ \t]{2,}`)
	reManyDots    = regexp.MustCompile(`\.{4,}`)
	reSpaceComma  = regexp.MustCompile(` ,`)
	reCommaComma  = regexp.MustCompile(`,,+`)
	reCommaDot    = regexp.MustCompile(`,\.`)
	reNoWordLine  = regexp.MustCompile(`^\W+$`)
)

// normalizeGlyphs implements spec.md §4.5 step 11.
func normalizeGlyphs(text string) string {
	text = strings.ReplaceAll(text, "<<", "«")
	text = strings.ReplaceAll(text, ">>", "»")
	text = strings.ReplaceAll(text, "\t", " ")
	text = reMultiSpace.ReplaceAllString(text, " ")
	text = reManyDots.ReplaceAllString(text, "...")
	text = reSpaceComma.ReplaceAllString(text, ",")
	text = reCommaComma.ReplaceAllString(text, ",")
	text = reCommaDot.ReplaceAllString(text, ".")

	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if reNoWordLine.MatchString(strings.TrimSpace(ln)) && strings.TrimSpace(ln) != "" {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
