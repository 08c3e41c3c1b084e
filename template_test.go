package wikix

import (
	"testing"

	"kr.dev/diff"
)

func TestParseTemplateLiteralOnly(t *testing.T) {
	tmpl := ParseTemplate("plain text, no params")
	want := &Template{Nodes: []Node{{Kind: NodeLiteral, Literal: "plain text, no params"}}}
	diff.Test(t, t.Errorf, tmpl, want)
}

func TestParseTemplateSingleArgRef(t *testing.T) {
	tmpl := ParseTemplate("Hello {{{1}}}!")
	if len(tmpl.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3: %+v", len(tmpl.Nodes), tmpl.Nodes)
	}
	if tmpl.Nodes[0].Kind != NodeLiteral || tmpl.Nodes[0].Literal != "Hello " {
		t.Errorf("node0 = %+v", tmpl.Nodes[0])
	}
	if tmpl.Nodes[1].Kind != NodeArgRef {
		t.Errorf("node1 kind = %v, want NodeArgRef", tmpl.Nodes[1].Kind)
	}
	if tmpl.Nodes[1].Default != nil {
		t.Errorf("node1 should have no default")
	}
	if tmpl.Nodes[2].Kind != NodeLiteral || tmpl.Nodes[2].Literal != "!" {
		t.Errorf("node2 = %+v", tmpl.Nodes[2])
	}
}

func TestParseTemplateArgRefWithDefault(t *testing.T) {
	tmpl := ParseTemplate("{{{x|fallback}}}")
	if len(tmpl.Nodes) != 1 || tmpl.Nodes[0].Kind != NodeArgRef {
		t.Fatalf("unexpected nodes: %+v", tmpl.Nodes)
	}
	ref := tmpl.Nodes[0]
	if len(ref.Name.Nodes) != 1 || ref.Name.Nodes[0].Literal != "x" {
		t.Errorf("name = %+v", ref.Name.Nodes)
	}
	if ref.Default == nil || len(ref.Default.Nodes) != 1 || ref.Default.Nodes[0].Literal != "fallback" {
		t.Errorf("default = %+v", ref.Default)
	}
}

func TestSplitPartsBasic(t *testing.T) {
	got := SplitParts("a|b|c")
	want := []string{"a", "b", "c"}
	diff.Test(t, t.Errorf, got, want)
}

func TestSplitPartsProtectsNestedTemplate(t *testing.T) {
	got := SplitParts("a|{{b|c}}|d")
	want := []string{"a", "{{b|c}}", "d"}
	diff.Test(t, t.Errorf, got, want)
}

func TestSplitPartsProtectsLink(t *testing.T) {
	got := SplitParts("see [[Foo|bar]]|next")
	want := []string{"see [[Foo|bar]]", "next"}
	diff.Test(t, t.Errorf, got, want)
}

func TestSplitPartsProtectsTable(t *testing.T) {
	got := SplitParts("x|{| a |- |b|} |y")
	want := []string{"x", "{| a |- |b|} ", "y"}
	diff.Test(t, t.Errorf, got, want)
}

func TestSplitPartsNoDelimiter(t *testing.T) {
	got := SplitParts("just one part")
	want := []string{"just one part"}
	diff.Test(t, t.Errorf, got, want)
}
