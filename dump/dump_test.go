package dump

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
)

const sampleDump = `<mediawiki>
<siteinfo>
<base>http://en.wikipedia.org/wiki/Main</base>
<namespace key="0"></namespace>
<namespace key="10">Template</namespace>
</siteinfo>
<page>
<title>Albert Einstein</title>
<id>736</id>
<text xml:space="preserve">Some inline text</text>
</page>
<page>
<title>Talk:Albert Einstein</title>
<id>737</id>
<redirect title="Albert Einstein" />
<text xml:space="preserve">
Line one
Line two
</text>
</page>
</mediawiki>`

func TestReaderSiteInfo(t *testing.T) {
	r := NewReader(strings.NewReader(sampleDump))
	if r.Site.Base != "http://en.wikipedia.org/wiki/Main" {
		t.Errorf("Site.Base = %q", r.Site.Base)
	}
	if r.Site.Namespaces[10] != "Template" {
		t.Errorf("Site.Namespaces[10] = %q, want %q", r.Site.Namespaces[10], "Template")
	}
	if r.Site.TemplateNamespace() != "Template" {
		t.Errorf("TemplateNamespace() = %q", r.Site.TemplateNamespace())
	}
}

func TestSiteInfoURLBase(t *testing.T) {
	s := &SiteInfo{Base: "http://en.wikipedia.org/wiki/Main"}
	if got := s.URLBase(); got != "http://en.wikipedia.org/wiki" {
		t.Errorf("URLBase() = %q, want %q", got, "http://en.wikipedia.org/wiki")
	}

	s = &SiteInfo{Base: "no-slashes-here"}
	if got := s.URLBase(); got != "no-slashes-here" {
		t.Errorf("URLBase() with no slash = %q, want unchanged %q", got, "no-slashes-here")
	}

	var nilSite *SiteInfo
	if got := nilSite.URLBase(); got != "" {
		t.Errorf("nil SiteInfo URLBase() = %q, want empty", got)
	}
}

func TestSiteInfoTemplateNamespaceDefault(t *testing.T) {
	var s *SiteInfo
	if got := s.TemplateNamespace(); got != "Template" {
		t.Errorf("nil SiteInfo TemplateNamespace() = %q, want %q", got, "Template")
	}
	s = &SiteInfo{Namespaces: map[int]string{}}
	if got := s.TemplateNamespace(); got != "Template" {
		t.Errorf("empty SiteInfo TemplateNamespace() = %q, want %q", got, "Template")
	}
}

func TestReaderNextInlineText(t *testing.T) {
	r := NewReader(strings.NewReader(sampleDump))

	p1, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if p1.ID != "736" || p1.Title != "Albert Einstein" || p1.Redirect || p1.Text != "Some inline text" {
		t.Errorf("page 1 = %+v", p1)
	}
}

func TestReaderNextMultilineTextAndRedirect(t *testing.T) {
	r := NewReader(strings.NewReader(sampleDump))
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next() (page 1) error: %v", err)
	}

	p2, err := r.Next()
	if err != nil {
		t.Fatalf("Next() (page 2) error: %v", err)
	}
	if p2.ID != "737" || p2.Title != "Talk:Albert Einstein" || !p2.Redirect {
		t.Errorf("page 2 = %+v", p2)
	}
	want := "\nLine one\nLine two\n"
	if p2.Text != want {
		t.Errorf("page 2 text = %q, want %q", p2.Text, want)
	}
}

func TestReaderNextEOF(t *testing.T) {
	r := NewReader(strings.NewReader(sampleDump))
	for i := 0; i < 2; i++ {
		if _, err := r.Next(); err != nil {
			t.Fatalf("Next() #%d error: %v", i, err)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestOpenPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.xml")
	if err := os.WriteFile(path, []byte("plain content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "plain content" {
		t.Errorf("Open(plain) content = %q", got)
	}
}

func TestOpenGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.xml.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte("gzipped content")); err != nil {
		t.Fatalf("gzip Write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "gzipped content" {
		t.Errorf("Open(gzip) content = %q", got)
	}
}

func TestOpenBzip2(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.xml.bz2")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	bw, err := dsnetbzip2.NewWriter(f, nil)
	if err != nil {
		t.Fatalf("bzip2 NewWriter: %v", err)
	}
	if _, err := bw.Write([]byte("bzipped content")); err != nil {
		t.Fatalf("bzip2 Write: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("bzip2 Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "bzipped content" {
		t.Errorf("Open(bzip2) content = %q", got)
	}
}

func TestOpenStdin(t *testing.T) {
	rc, err := Open("-")
	if err != nil {
		t.Fatalf("Open(-): %v", err)
	}
	if rc == nil {
		t.Fatalf("Open(-) returned nil reader")
	}
}
