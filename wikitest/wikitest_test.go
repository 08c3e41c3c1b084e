package wikitest

import "testing"

func TestTextOperators(t *testing.T) {
	cases := []struct {
		op      string
		got     string
		want    string
		wantErr bool
	}{
		{"==", "foo", "foo", false},
		{"==", "foo", "bar", true},
		{"!=", "foo", "bar", false},
		{"!=", "foo", "foo", true},
		{"~", "hello world", "^hello", false},
		{"~", "hello world", "^world", true},
		{"!~", "hello world", "^world", false},
		{"!~", "hello world", "^hello", true},
		{"contains", "hello world", "lo wo", false},
		{"contains", "hello world", "xyz", true},
		{"!contains", "hello world", "xyz", false},
		{"!contains", "hello world", "lo wo", true},
		{"bogus", "a", "b", true},
	}
	for _, c := range cases {
		msg := Text("field", c.op, c.got, c.want)
		if c.wantErr && msg == "" {
			t.Errorf("Text(%q, %q, %q) = \"\", want failure message", c.op, c.got, c.want)
		}
		if !c.wantErr && msg != "" {
			t.Errorf("Text(%q, %q, %q) = %q, want success", c.op, c.got, c.want, msg)
		}
	}
}

func TestJSON(t *testing.T) {
	body := `{"id":"1","title":"Albert Einstein","text":"line one\nline two"}`

	if msg := JSON(body, "/title", "==", "Albert Einstein"); msg != "" {
		t.Errorf("JSON(/title) = %q", msg)
	}
	if msg := JSON(body, "/text", "contains", "line two"); msg != "" {
		t.Errorf("JSON(/text contains) = %q", msg)
	}
	if msg := JSON(body, "/missing", "==", "undefined"); msg != "" {
		t.Errorf("JSON(/missing) = %q, want success (undefined)", msg)
	}
}

const sampleHTML = `<html><body>
<p>first</p>
<p>second</p>
<a href="x">link one</a>
<a href="y">link two</a>
</body></html>`

func TestHTMLFirstMatch(t *testing.T) {
	if msg := HTML(sampleHTML, "p", "==", "first"); msg != "" {
		t.Errorf("HTML(p ==) = %q", msg)
	}
}

func TestHTMLCountOperator(t *testing.T) {
	if msg := HTML(sampleHTML, "a", "count", "2"); msg != "" {
		t.Errorf("HTML(a count 2) = %q", msg)
	}
	if msg := HTML(sampleHTML, "p", "count", "3"); msg == "" {
		t.Errorf("HTML(p count 3) = \"\", want failure (only 2 <p> elements)")
	}
	if msg := HTML(sampleHTML, "div", "count", "0"); msg != "" {
		t.Errorf("HTML(div count 0) = %q, want success (no matches is a valid zero count)", msg)
	}
}

func TestHTMLCountRequiresWant(t *testing.T) {
	if msg := HTML(sampleHTML, "p", "count", ""); msg == "" {
		t.Errorf("HTML(p count \"\") = \"\", want an error about empty want")
	}
}

func TestHTMLNoMatchIsAnError(t *testing.T) {
	if msg := HTML(sampleHTML, "div", "==", "x"); msg == "" {
		t.Errorf("HTML(div ==) = \"\", want \"no elements match\" error")
	}
}
