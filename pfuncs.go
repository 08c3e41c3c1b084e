package wikix

import (
	"fmt"
	"regexp"
	"strings"
)

// pfunc is a parser-function implementation. args are already fully
// expanded (spec.md §4.3), except the module name passed to #invoke; the
// function also receives the Extractor, through which #invoke reads the
// enclosing frame.
type pfunc func(ex *Extractor, args []string) string

// pfuncs is the static dispatch table for parser functions and string
// functions (spec.md §4.3). Lookup is case-sensitive.
var pfuncs = map[string]pfunc{
	"#if":      pfIf,
	"#ifeq":    pfIfeq,
	"#iferror": pfIferror,
	"#switch":  pfSwitch,
	"#expr":    pfExpr,
	"#invoke":  pfInvoke,

	"lc":        func(_ *Extractor, a []string) string { return strings.ToLower(argAt(a, 0)) },
	"uc":        func(_ *Extractor, a []string) string { return strings.ToUpper(argAt(a, 0)) },
	"lcfirst":   func(_ *Extractor, a []string) string { return Lcfirst(argAt(a, 0)) },
	"ucfirst":   func(_ *Extractor, a []string) string { return Ucfirst(argAt(a, 0)) },
	"int":       func(_ *Extractor, a []string) string { return argAt(a, 0) },
	"urlencode": func(_ *Extractor, a []string) string { return urlEncode(argAt(a, 0)) },

	// Unsupported: always empty (spec.md §4.3, §9).
	"#ifexpr":     constEmpty,
	"#ifexist":    constEmpty,
	"#rel2abs":    constEmpty,
	"#time":       constEmpty,
	"#timel":      constEmpty,
	"#titleparts": constEmpty,
	"#language":   constEmpty,
}

func constEmpty(_ *Extractor, _ []string) string { return "" }

func argAt(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

func pfIf(_ *Extractor, args []string) string {
	cond := strings.TrimSpace(argAt(args, 0))
	if cond != "" {
		return strings.TrimSpace(argAt(args, 1))
	}
	return strings.TrimSpace(argAt(args, 2))
}

func pfIfeq(_ *Extractor, args []string) string {
	a := strings.TrimSpace(argAt(args, 0))
	b := strings.TrimSpace(argAt(args, 1))
	if a == b {
		return strings.TrimSpace(argAt(args, 2))
	}
	return strings.TrimSpace(argAt(args, 3))
}

var reErrorClass = regexp.MustCompile(`(?is)<(strong|span|p|div)\s+class="[^"]*\berror\b[^"]*"`)

func pfIferror(_ *Extractor, args []string) string {
	test := argAt(args, 0)
	if reErrorClass.MatchString(test) {
		return strings.TrimSpace(argAt(args, 1))
	}
	if len(args) > 2 {
		return strings.TrimSpace(argAt(args, 2))
	}
	return test
}

// pfSwitch implements {{#switch:primary|case1|case2=val|#default=d|...}}
// fall-through matching (spec.md §4.3 and scenario S3).
func pfSwitch(_ *Extractor, args []string) string {
	if len(args) == 0 {
		return ""
	}
	primary := strings.TrimSpace(args[0])

	var defaultVal string
	haveDefault := false
	var pendingLabels []string

	for _, item := range args[1:] {
		name, value, hasEq := strings.Cut(item, "=")
		if !hasEq {
			// Fall-through label with no value yet: remember it, also
			// treat as a potential dangling final value.
			label := strings.TrimSpace(item)
			pendingLabels = append(pendingLabels, label)
			continue
		}

		value = strings.TrimSpace(value)
		for _, label := range strings.Split(name, "|") {
			label = strings.TrimSpace(label)
			if label == "#default" {
				defaultVal = value
				haveDefault = true
				continue
			}
			if label == primary {
				return value
			}
		}
		for _, label := range pendingLabels {
			if label == primary {
				return value
			}
		}
		pendingLabels = nil
	}

	if haveDefault {
		return defaultVal
	}
	// A dangling unvalued final item is itself the returned value.
	if len(pendingLabels) > 0 {
		return pendingLabels[len(pendingLabels)-1]
	}
	return ""
}

func pfInvoke(ex *Extractor, args []string) string {
	module := strings.TrimSpace(argAt(args, 0))
	function := strings.TrimSpace(argAt(args, 1))
	callArgs := args[min(2, len(args)):]

	if len(callArgs) == 0 && ex != nil {
		if b := ex.currentBindings(); b != nil {
			for i := 1; ; i++ {
				v, ok := b[fmt.Sprintf("%d", i)]
				if !ok {
					break
				}
				callArgs = append(callArgs, v)
			}
		}
	}

	if strings.EqualFold(module, "convert") && strings.EqualFold(function, "convert") {
		return strings.TrimSpace(strings.Join(nonEmptyPrefix(callArgs, 2), " "))
	}
	// Catch-all for any module/function this stub doesn't implement
	// (spec.md §7.5): degrade to empty output rather than propagating an
	// error, but still count it.
	if ex != nil {
		ex.Counts.ParserFuncErrors++
	}
	return ""
}

func nonEmptyPrefix(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// urlEncode percent-encodes s as UTF-8 for use in href attributes, using
// %20 for spaces (spec.md §4.3).
func urlEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteString("%20")
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xF])
		}
	}
	return b.String()
}
