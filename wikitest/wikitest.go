// Package wikitest provides assertion helpers for tests over extracted
// output, adapted from the linebased project's checks package: the same
// operator-based Text comparator, plus JSON-pointer and CSS-selector
// checks aimed at this package's <doc>/JSON output instead of arbitrary
// script bodies.
package wikitest

import (
	"bytes"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ericchiang/css"
	"golang.org/x/net/html"
)

// Text compares got against want using op, returning a failure message
// when the comparison does not hold and "" on success.
//
// Supported operators: "==", "!=", "~" (regex match), "!~" (regex
// non-match), "contains", "!contains".
func Text(what, op, got, want string) string {
	switch op {
	case "==":
		if got != want {
			return fmt.Sprintf("%s = %#q, want %#q", what, got, want)
		}
	case "!=":
		if got == want {
			return fmt.Sprintf("%s == %#q (but should not)", what, want)
		}
	case "~":
		ok, err := regexp.MatchString(want, got)
		if err != nil {
			return fmt.Sprintf("error compiling regex %#q: %v", want, err)
		}
		if !ok {
			return fmt.Sprintf("%s does not match %#q\n\t%s", what, want, indentText(got))
		}
	case "!~":
		ok, err := regexp.MatchString(want, got)
		if err != nil {
			return fmt.Sprintf("error compiling regex %#q: %v", want, err)
		}
		if ok {
			return fmt.Sprintf("%s matches %#q (but should not)\n\t%s", what, want, indentText(got))
		}
	case "contains":
		if !strings.Contains(got, want) {
			return fmt.Sprintf("%s does not contain %#q\n\t%s", what, want, indentText(got))
		}
	case "!contains":
		if strings.Contains(got, want) {
			return fmt.Sprintf("%s contains %#q (but should not)\n\t%s", what, want, indentText(got))
		}
	default:
		return fmt.Sprintf("unknown operator %q", op)
	}
	return ""
}

// JSON checks a JSON value from an extracted JSON-line document at an
// RFC 6901 pointer path. Returns "" on success.
func JSON(body, path, op, want string) string {
	got, err := jsonFind(body, jsontext.Pointer(path))
	if err != nil {
		return err.Error()
	}
	return Text(path, op, got, want)
}

func jsonFind(body string, target jsontext.Pointer) (string, error) {
	dec := jsontext.NewDecoder(strings.NewReader(body))
	readValue := func() (string, error) {
		v, err := dec.ReadValue()
		return strings.TrimSpace(v.String()), err
	}

	if target == "" || target == "/" {
		return readValue()
	}

	for {
		tok, err := dec.ReadToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "undefined", nil
			}
			return "", err
		}
		if dec.StackPointer() == target {
			k, _ := dec.StackIndex(dec.StackDepth())
			if k == '{' {
				return readValue()
			}
			if tok.Kind() == '"' {
				b, err := jsontext.AppendQuote(nil, tok.String())
				return string(b), err
			}
			return tok.String(), nil
		}
	}
}

// HTML checks the inner HTML of the first element matching selector
// against want using op, within an --html-mode output body. An additional
// "count" operator compares the number of matched elements against want
// instead (e.g. "a[href] count 2"), adapted from the teacher's
// checks.HTML.
func HTML(body, selector, op, want string) string {
	sel, err := css.Parse(selector)
	if err != nil {
		return fmt.Sprintf("error parsing selector %q: %v", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return fmt.Sprintf("error parsing HTML: %v", err)
	}

	matches := sel.Select(doc)

	if op == "count" {
		if want == "" {
			return "count operator requires non-empty want value"
		}
		return Text(selector, "==", strconv.Itoa(len(matches)), want)
	}

	if len(matches) == 0 {
		return fmt.Sprintf("no elements match selector %q", selector)
	}
	return Text(selector, op, innerHTML(matches[0]), want)
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

func indentText(text string) string {
	if text == "" {
		return "(empty)"
	}
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "(blank lines)"
	}
	return strings.ReplaceAll(text, "\n", "\n\t")
}
