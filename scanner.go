package wikix

import "strings"

// SpanKind identifies which balanced construct a [Span] delimits.
type SpanKind int

const (
	// KindTemplate is a {{...}} template invocation.
	KindTemplate SpanKind = iota
	// KindTplArg is a {{{...}}} parameter reference.
	KindTplArg
	// KindLink is a [[...]] internal link.
	KindLink
)

// Span is a half-open range [Start, End) over the scanned text, delimiting
// one balanced construct found by [FindMatchingBraces] or [FindBalanced].
type Span struct {
	Start, End int
	Kind       SpanKind
}

// braceFrame tracks one tentatively-open {{ or {{{ run on the scanner's
// stack. arity is 2 for a template open and 3 for a tplarg open; a 3-wide
// frame may be demoted to 2 at close time if only two closing braces show
// up (see FindMatchingBraces).
type braceFrame struct {
	delim byte // '{' or '['
	start int  // position where the functional delimiter begins
	arity int  // 2 or 3 for '{' frames; always 2 for '[' frames
}

// FindMatchingBraces yields spans of balanced {{...}}, {{{...}}} and [[...]]
// constructs in text. Brace spans ({{...}} and {{{...}}}) never overlap one
// another and come in increasing order, and so do link spans: of nested
// constructs of the same family only the outermost is returned. A brace span
// inside a link, or a link inside a brace span, is returned as well, ahead of
// the span that encloses it.
//
// minOpen selects which brace arities are recognized as delimiters:
// minOpen == 2 recognizes both {{ (template) and {{{ (tplarg) opens;
// minOpen == 3 recognizes only {{{ (tplarg) opens, treating a bare {{ run
// as plain literal text. [[...]] links are always recognized regardless of
// minOpen.
//
// Ambiguous runs of three or more consecutive '{' are greedily assigned to
// the innermost tplarg delimiter, peeling off any excess as literal stray
// braces (so {{{{ x }}}} is "{" + tplarg("{{{ x }}}") + "}"); if the
// corresponding close run turns out to be too short to satisfy a tentative
// tplarg, the open is demoted to a 2-wide template open instead, per
// spec §4.1.
//
// On malformed input the scanner stops and returns the spans found so far;
// it never errors.
func FindMatchingBraces(text string, minOpen int) []Span {
	var spans []Span
	var stack []braceFrame
	cur := 0
	n := len(text)

	for cur < n {
		start, end, ch := nextRun(text, cur)
		if start < 0 {
			break
		}
		width := end - start

		switch ch {
		case '{':
			if width < 2 {
				cur = end
				continue
			}
			arity := 2
			if width >= 3 {
				arity = 3
			}
			if arity == 3 && minOpen > 2 {
				// min_open == 3: bare {{ runs are not delimiters, but a
				// run of exactly 2 is simply skipped as literal; runs of
				// 3+ still open a tplarg.
			} else if arity == 2 && minOpen > 2 {
				cur = end
				continue
			}
			extra := width - arity
			stack = append(stack, braceFrame{delim: '{', start: start + extra, arity: arity})
			cur = end

		case '[':
			if width < 2 {
				cur = end
				continue
			}
			extra := width - 2
			stack = append(stack, braceFrame{delim: '[', start: start + extra, arity: 2})
			cur = end

		case '}':
			ok, newSpans := closeRun(&stack, start, width, '{', KindTemplate, KindTplArg)
			spans = append(dropEnclosed(spans, newSpans), newSpans...)
			cur = end
			if !ok {
				return spans
			}

		case ']':
			ok, newSpans := closeRun(&stack, start, width, '[', KindLink, KindLink)
			spans = append(dropEnclosed(spans, newSpans), newSpans...)
			cur = end
			if !ok {
				return spans
			}
		}
	}

	return spans
}

// dropEnclosed removes from spans every span of the same family (braces or
// links) that lies inside the single span in outer, if there is one.
func dropEnclosed(spans, outer []Span) []Span {
	if len(outer) == 0 {
		return spans
	}
	o := outer[0]
	kept := spans[:0]
	for _, sp := range spans {
		if sp.Start < o.Start || (sp.Kind == KindLink) != (o.Kind == KindLink) {
			kept = append(kept, sp)
		}
	}
	return kept
}

// closeRun consumes a run of `width` closing characters (starting at
// runStart) against the scanner stack, popping every frame of the given
// delim it can fully satisfy. kind2/kind3 give the span kind to emit for
// a 2-wide and 3-wide frame respectively (for '[' frames these are always
// equal). When one contiguous close run satisfies more than one stacked
// frame (adjacent nesting with no separating text, e.g. the closing
// "}}}}" of "{{a|{{b}}}}"), only the outermost frame it closes is
// returned as a span: the inner frame's span would nest inside it, and
// its content is recovered instead when the caller re-parses the outer
// span's body. It returns false if the run cannot be matched against the
// current top of stack at all, meaning the input is unbalanced and
// scanning must stop.
func closeRun(stack *[]braceFrame, runStart, width int, delim byte, kind2, kind3 SpanKind) (bool, []Span) {
	remaining := width
	consumed := 0
	var last *Span

	asResult := func(ok bool) (bool, []Span) {
		if last == nil {
			return ok, nil
		}
		return ok, []Span{*last}
	}

	for remaining > 0 {
		s := *stack
		if len(s) == 0 || s[len(s)-1].delim != delim {
			// Nothing left to close against: the rest of this run is
			// stray literal text, not an error.
			return asResult(true)
		}
		top := &s[len(s)-1]
		closePos := runStart + consumed

		if remaining >= top.arity {
			kind := kind2
			if top.arity == 3 {
				kind = kind3
			}
			sp := Span{Start: top.start, End: closePos + top.arity, Kind: kind}
			last = &sp
			consumed += top.arity
			remaining -= top.arity
			*stack = s[:len(s)-1]
			continue
		}

		if top.arity == 3 && remaining == 2 {
			// Demote: the tentative {{{ open only had a 2-wide close
			// available, so the innermost brace of the open run was
			// actually stray and this is a template, not a tplarg.
			top.start++
			top.arity = 2
			sp := Span{Start: top.start, End: closePos + 2, Kind: kind2}
			last = &sp
			consumed += 2
			remaining -= 2
			*stack = s[:len(s)-1]
			continue
		}

		// Cannot satisfy this frame's close with what remains: unbalanced.
		return asResult(false)
	}

	return asResult(true)
}

// nextRun finds the next maximal run of a single delimiter character
// ('{', '}', '[' or ']') at or after pos. It returns start == -1 if none
// is found.
func nextRun(text string, pos int) (start, end int, ch byte) {
	i := strings.IndexAny(text[pos:], "{}[]")
	if i < 0 {
		return -1, -1, 0
	}
	start = pos + i
	ch = text[start]
	end = start + 1
	for end < len(text) && text[end] == ch {
		end++
	}
	return start, end, ch
}

// FindBalanced yields non-overlapping, increasing spans of text balanced
// under the explicit delimiter lists opens/closes (parallel arrays: opens[i]
// pairs with closes[i]). Unlike [FindMatchingBraces] it uses a simple
// push/pop stack with no arity ambiguity, and is used for delimiter pairs
// like {| and |} that nest among themselves but do not interact with
// {{...}}, {{{...}}} or [[...]].
func FindBalanced(text string, opens, closes []string) []Span {
	var spans []Span
	type openMark struct {
		idx   int // index into opens/closes
		start int
	}
	var stack []openMark

	cur := 0
	for cur <= len(text) {
		bestPos := -1
		bestIdx := -1
		bestLen := 0
		bestIsClose := false

		tryMatch := func(delims []string, isClose bool) {
			for i, d := range delims {
				if d == "" {
					continue
				}
				if j := strings.Index(text[cur:], d); j >= 0 {
					pos := cur + j
					if bestPos < 0 || pos < bestPos {
						bestPos = pos
						bestIdx = i
						bestLen = len(d)
						bestIsClose = isClose
					}
				}
			}
		}
		tryMatch(opens, false)
		tryMatch(closes, true)

		if bestPos < 0 {
			break
		}

		if bestIsClose {
			if len(stack) > 0 && stack[len(stack)-1].idx == bestIdx {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					spans = append(spans, Span{Start: top.start, End: bestPos + bestLen})
				}
			}
			// Mismatched or unopened close: stray text, ignore.
		} else {
			stack = append(stack, openMark{idx: bestIdx, start: bestPos})
		}
		cur = bestPos + bestLen
	}

	return spans
}
