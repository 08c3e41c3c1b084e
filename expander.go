package wikix

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxTemplateRecursion bounds the depth of the invocation frame stack
// (spec.md §4.4, P1).
const MaxTemplateRecursion = 30

// MaxParameterRecursion bounds recursive parameter substitution, tracked
// independently of the invocation frame (spec.md §4.4.4, P1).
const MaxParameterRecursion = 16

// frame is one entry of the invocation stack: the invoked title and its
// bound parameters, so a nested {{#invoke}} can recover positional
// parameters from the template that directly embeds it.
type frame struct {
	title    string
	bindings map[string]string
}

// Extractor holds everything needed to expand templates for one page: the
// shared, read-only [Store], the page's magic-word context, soft-failure
// [Counters], and the mutable invocation frame stack. An Extractor is
// created fresh per page and is not safe for concurrent use.
type Extractor struct {
	Store  *Store
	Page   *PageContext
	Counts *Counters

	frames     []frame
	substDepth int
}

// NewExtractor returns an Extractor ready to expand pages against store,
// reporting page-specific magic words from pc and accumulating soft
// failures into counts (a fresh [Counters] is allocated if counts is nil).
func NewExtractor(store *Store, pc *PageContext, counts *Counters) *Extractor {
	if counts == nil {
		counts = &Counters{}
	}
	return &Extractor{Store: store, Page: pc, Counts: counts}
}

// currentBindings returns the parameter bindings of the innermost active
// invocation, or nil outside any invocation. Used by #invoke to recover
// positional parameters from its enclosing template call (spec.md §3,
// §4.4.2 step 5).
func (ex *Extractor) currentBindings() map[string]string {
	if len(ex.frames) == 0 {
		return nil
	}
	return ex.frames[len(ex.frames)-1].bindings
}

// Expand implements §4.4.1: scan text at min_open=2, replacing every
// template/tplarg span with its expansion and leaving [[...]] link spans as
// literal text (they are not invocations; the cleaner handles them later).
func (ex *Extractor) Expand(text string) string {
	if len(ex.frames) >= MaxTemplateRecursion {
		ex.Counts.RecursionExceeded++
		return ""
	}

	spans := FindMatchingBraces(text, 2)
	var b strings.Builder
	cur := 0
	for _, sp := range spans {
		if sp.Kind == KindLink {
			continue
		}
		b.WriteString(text[cur:sp.Start])
		inner := innerBody(text, sp)
		b.WriteString(ex.expandInvocation(inner))
		cur = sp.End
	}
	b.WriteString(text[cur:])
	return b.String()
}

// innerBody strips the delimiters from a template/tplarg span: 2-wide for
// KindTemplate, 3-wide for KindTplArg.
func innerBody(text string, sp Span) string {
	w := 2
	if sp.Kind == KindTplArg {
		w = 3
	}
	return text[sp.Start+w : sp.End-w]
}

var reSubst = regexp.MustCompile(`(?i)^(subst|safesubst)\s*:\s*`)
var reParamAssign = regexp.MustCompile(`(?s)^\s*([^=\s][^=]*?)\s*=(.*)$`)

// expandInvocation implements §4.4.2.
func (ex *Extractor) expandInvocation(body string) string {
	parts := SplitParts(body)
	title := strings.TrimSpace(ex.Expand(parts[0]))

	subst := false
	if m := reSubst.FindStringIndex(title); m != nil {
		title = title[m[1]:]
		subst = true
	}

	if title == "" {
		ex.Counts.EmptyTitle++
		return ""
	}

	if val, ok := magicWord(ex.Page, title); ok {
		return val
	}

	if i := strings.IndexByte(title, ':'); i > 0 {
		name := title[:i]
		first := strings.TrimSpace(title[i+1:])
		if fn, ok := pfuncs[name]; ok {
			args := append([]string{first}, parts[1:]...)
			for j := range args {
				if name == "#invoke" && j == 0 {
					continue
				}
				args[j] = ex.Expand(args[j])
			}
			return ex.Expand(fn(ex, args))
		}
	}

	fqTitle, ok := ex.Store.Namespaces.FullyQualifiedTemplateTitle(title)
	if !ok {
		ex.Counts.TemplateMiss++
		return ""
	}
	rawBody, found := ex.Store.Lookup(fqTitle)
	if !found {
		ex.Counts.TemplateMiss++
		return ""
	}

	tmpl := ex.Store.Parse(rawBody)
	bindings := ex.buildBindings(parts[1:], subst)

	ex.frames = append(ex.frames, frame{title: fqTitle, bindings: bindings})
	instantiated := ex.substitute(tmpl, bindings)
	// The frame stays on the stack across this recursive Expand so a
	// self-referential chain (Loop -> "{{Loop}}" -> Loop -> ...) is bounded
	// by MaxTemplateRecursion: popping before recursing would reset the
	// depth to zero on every iteration and never terminate (spec.md §4.4, P1).
	result := ex.Expand(instantiated)
	ex.frames = ex.frames[:len(ex.frames)-1]

	return result
}

// buildBindings implements §4.4.3.
func (ex *Extractor) buildBindings(parts []string, subst bool) map[string]string {
	bindings := make(map[string]string, len(parts))
	positional := 0
	for _, part := range parts {
		var key, value string
		if m := reParamAssign.FindStringSubmatch(part); m != nil {
			key = strings.TrimSpace(m[1])
			value = m[2]
			if !strings.Contains(value, "]]") {
				value = strings.TrimSpace(value)
			}
		} else {
			positional++
			key = strconv.Itoa(positional)
			value = part
			if !strings.Contains(value, "]]") {
				value = strings.TrimSpace(value)
			}
		}
		if !subst {
			value = ex.Expand(value)
		}
		bindings[key] = value
	}
	return bindings
}

// substitute implements §4.4.4: walk the parsed node sequence, resolving
// ArgRef nodes against bindings.
func (ex *Extractor) substitute(tmpl *Template, bindings map[string]string) string {
	var b strings.Builder
	for _, node := range tmpl.Nodes {
		if node.Kind == NodeLiteral {
			b.WriteString(node.Literal)
			continue
		}
		b.WriteString(ex.substituteArgRef(node, bindings))
	}
	return b.String()
}

func (ex *Extractor) substituteArgRef(node Node, bindings map[string]string) string {
	if ex.substDepth >= MaxParameterRecursion {
		ex.Counts.ParamRecursionExceeded++
		return ""
	}
	ex.substDepth++
	defer func() { ex.substDepth-- }()

	name := strings.TrimSpace(ex.substitute(node.Name, bindings))
	if v, ok := bindings[name]; ok {
		return v
	}
	if node.Default != nil {
		return ex.substitute(node.Default, bindings)
	}
	return ""
}
