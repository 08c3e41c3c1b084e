package wikix

import (
	"sort"
	"strings"
)

// NodeKind distinguishes the two kinds of node in a parsed [Template] body.
type NodeKind int

const (
	// NodeLiteral is verbatim text.
	NodeLiteral NodeKind = iota
	// NodeArgRef is a {{{name|default}}} parameter reference.
	NodeArgRef
)

// Node is one element of a [Template]'s parsed body sequence.
type Node struct {
	Kind    NodeKind
	Literal string    // set when Kind == NodeLiteral
	Name    *Template // set when Kind == NodeArgRef: the parameter's name sub-template
	Default *Template // set when Kind == NodeArgRef and a default was given; nil otherwise
}

// Template is a parsed sequence of alternating literal text and parameter
// references (spec.md §3). It is immutable once constructed and safe to
// share across concurrent extractions.
type Template struct {
	Nodes []Node
}

// ParseTemplate parses raw template body text into a [Template] node tree,
// extracting {{{name|default}}} parameter references (found via
// [FindMatchingBraces] with minOpen=3, so bare {{...}} template calls are
// left as literal text to be expanded later). Name and default segments
// are themselves parsed recursively, since they may nest further parameter
// references.
func ParseTemplate(body string) *Template {
	spans := FindMatchingBraces(body, 3)
	var nodes []Node
	cur := 0

	for _, sp := range spans {
		if sp.Kind != KindTplArg {
			continue
		}
		if sp.Start > cur {
			nodes = append(nodes, Node{Kind: NodeLiteral, Literal: body[cur:sp.Start]})
		}

		inner := body[sp.Start+3 : sp.End-3]
		parts := SplitParts(inner)

		nameNode := ParseTemplate(parts[0])
		var defNode *Template
		if len(parts) > 1 {
			defNode = ParseTemplate(strings.Join(parts[1:], "|"))
		}
		nodes = append(nodes, Node{Kind: NodeArgRef, Name: nameNode, Default: defNode})
		cur = sp.End
	}

	if cur < len(body) {
		nodes = append(nodes, Node{Kind: NodeLiteral, Literal: body[cur:]})
	}
	return &Template{Nodes: nodes}
}

// protectedRange is a run of text that must not be split on '|' by
// [SplitParts]: a balanced {{...}}, {{{...}}}, [[...]] or {|...|} span.
type protectedRange struct {
	start, end int
}

// SplitParts splits body at top-level '|' characters, protecting any that
// fall inside {{{...}}}, {{...}}, [[...]] or {|...|} (spec.md §4.4.5). A
// body with no top-level '|' returns a single-element slice.
func SplitParts(body string) []string {
	var ranges []protectedRange
	for _, sp := range FindMatchingBraces(body, 2) {
		ranges = append(ranges, protectedRange{sp.Start, sp.End})
	}
	for _, sp := range FindBalanced(body, []string{"{|"}, []string{"|}"}) {
		ranges = append(ranges, protectedRange{sp.Start, sp.End})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })

	parts := []string{""}
	appendLiteral := func(s string) {
		pieces := strings.Split(s, "|")
		parts[len(parts)-1] += pieces[0]
		parts = append(parts, pieces[1:]...)
	}

	cur := 0
	for _, r := range ranges {
		if r.start < cur {
			continue // overlapping/nested range already covered
		}
		appendLiteral(body[cur:r.start])
		parts[len(parts)-1] += body[r.start:r.end]
		cur = r.end
	}
	appendLiteral(body[cur:])

	return parts
}
