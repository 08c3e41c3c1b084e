// Package dump reads a streaming MediaWiki XML dump, tolerating plain,
// bzip2, and gzip input chosen by filename suffix (spec.md §6).
//
// The reader is line-oriented rather than a full XML parser: dumps are
// enormous, line-delimited by convention, and the tag set we care about
// (siteinfo, namespace, page, title, id, redirect, text) never nests in a
// way a handful of regexes can't track. Text content is returned exactly
// as it appears between tags, entities un-decoded — decoding is the
// cleaner's job (spec.md §6).
package dump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
)

// SiteInfo carries the dump-wide declarations read from <siteinfo>.
type SiteInfo struct {
	Base       string
	Namespaces map[int]string // key -> name, as declared by <namespace key="K">
}

// TemplateNamespace returns the namespace name for key 10 ("Template" by
// convention), defaulting to "Template" if the dump never declared it.
func (s *SiteInfo) TemplateNamespace() string {
	if s == nil {
		return "Template"
	}
	if n, ok := s.Namespaces[10]; ok && n != "" {
		return n
	}
	return "Template"
}

// URLBase derives the wiki's article-view URL prefix from the dump's
// declared <base> (e.g. "http://en.wikipedia.org/wiki/Main_Page") by
// dropping its final path segment, the sample page title every dump
// declares. The result is the URLBASE half of a "URLBASE?curid=ID" article
// link (spec.md §6).
func (s *SiteInfo) URLBase() string {
	if s == nil {
		return ""
	}
	if i := strings.LastIndex(s.Base, "/"); i >= 0 {
		return s.Base[:i]
	}
	return s.Base
}

// Page is one <page> element's relevant fields.
type Page struct {
	ID       string
	Title    string
	Redirect bool
	Text     string
}

// Open opens path for reading, transparently decompressing based on its
// suffix (".bz2" via dsnet/compress, which — unlike the standard library's
// read-only compress/bzip2 — shares a package with the writer the splitter
// uses; ".gz" via klauspost/compress, a faster drop-in; anything else is
// read plain). path == "-" reads stdin uncompressed.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: open %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".bz2"):
		zr, err := dsnetbzip2.NewReader(f, nil)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("dump: bzip2 %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("dump: gzip %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if e := r.closers[i].Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

var (
	reNamespaceTag = regexp.MustCompile(`<namespace\s+key="(-?\d+)"[^>]*>([^<]*)</namespace>`)
	reBaseTag      = regexp.MustCompile(`<base>([^<]*)</base>`)
	reTitleTag     = regexp.MustCompile(`<title>([^<]*)</title>`)
	reIDTag        = regexp.MustCompile(`<id>([^<]*)</id>`)
	reTextOpen     = regexp.MustCompile(`<text[^>]*>`)
	reTextInline   = regexp.MustCompile(`<text[^>]*>(.*)</text>`)
)

// Reader streams <page> elements from a MediaWiki dump.
type Reader struct {
	sc      *bufio.Scanner
	Site    SiteInfo
	pending string
}

// NewReader returns a Reader over r, scanning past <siteinfo> first so
// [Reader.Site] is populated before the first call to [Reader.Next].
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	rd := &Reader{sc: sc, Site: SiteInfo{Namespaces: make(map[int]string)}}
	rd.readSiteInfo()
	return rd
}

func (r *Reader) readSiteInfo() {
	for r.sc.Scan() {
		line := r.sc.Text()
		if m := reBaseTag.FindStringSubmatch(line); m != nil {
			r.Site.Base = m[1]
		}
		if m := reNamespaceTag.FindStringSubmatch(line); m != nil {
			if key, err := strconv.Atoi(m[1]); err == nil {
				r.Site.Namespaces[key] = m[2]
			}
		}
		if strings.Contains(line, "</siteinfo>") {
			return
		}
		if strings.Contains(line, "<page>") {
			// No <siteinfo> in this dump; rewind isn't possible on a
			// Scanner, so stash the line for Next via a one-line buffer.
			r.pending = line
			return
		}
	}
}

// Next returns the next page, or io.EOF when the dump is exhausted.
func (r *Reader) Next() (*Page, error) {
	var p *Page
	var textOpen bool
	var textBuf strings.Builder

	line, ok := r.nextLine()
	for ok {
		switch {
		case p == nil && strings.Contains(line, "<page>"):
			p = &Page{}
		case p == nil:
			// between pages; skip
		case strings.Contains(line, "</page>"):
			return p, nil
		case reTitleTag.MatchString(line):
			p.Title = reTitleTag.FindStringSubmatch(line)[1]
		case reIDTag.MatchString(line) && p.ID == "":
			p.ID = reIDTag.FindStringSubmatch(line)[1]
		case strings.Contains(line, "<redirect"):
			p.Redirect = true
		case !textOpen && reTextInline.MatchString(line):
			p.Text = reTextInline.FindStringSubmatch(line)[1]
		case !textOpen && reTextOpen.MatchString(line):
			textOpen = true
			loc := reTextOpen.FindStringIndex(line)
			textBuf.WriteString(line[loc[1]:])
			textBuf.WriteByte('\n')
		case textOpen && strings.Contains(line, "</text>"):
			idx := strings.Index(line, "</text>")
			textBuf.WriteString(line[:idx])
			p.Text = textBuf.String()
			textOpen = false
		case textOpen:
			textBuf.WriteString(line)
			textBuf.WriteByte('\n')
		}
		line, ok = r.nextLine()
	}

	if p != nil {
		return p, nil
	}
	return nil, io.EOF
}

// pending holds one line read ahead by readSiteInfo when a dump has no
// <siteinfo> block.
func (r *Reader) nextLine() (string, bool) {
	if r.pending != "" {
		l := r.pending
		r.pending = ""
		return l, true
	}
	if r.sc.Scan() {
		return r.sc.Text(), true
	}
	return "", false
}
