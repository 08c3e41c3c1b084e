package sink

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
)

func TestDirForIndex(t *testing.T) {
	cases := []struct {
		i    int
		want string
	}{
		{0, "AA"},
		{1, "AB"},
		{25, "AZ"},
		{26, "BA"},
		{51, "BZ"},
		{675, "ZZ"},
	}
	for _, c := range cases {
		if got := dirForIndex(c.i); got != c.want {
			t.Errorf("dirForIndex(%d) = %q, want %q", c.i, got, c.want)
		}
	}
}

func TestNewSplitterClampsBytes(t *testing.T) {
	s := NewSplitter(t.TempDir(), 10, false)
	if s.Bytes != minBytesPerFile {
		t.Errorf("Bytes = %d, want clamp to %d", s.Bytes, minBytesPerFile)
	}

	s2 := NewSplitter(t.TempDir(), 10*minBytesPerFile, false)
	if s2.Bytes != 10*minBytesPerFile {
		t.Errorf("Bytes = %d, want %d (no clamp)", s2.Bytes, 10*minBytesPerFile)
	}
}

func TestSplitterRotatesFilesOnCapacity(t *testing.T) {
	dir := t.TempDir()
	s := &Splitter{Dir: dir, Bytes: 10}

	if err := s.Write("0123456789"); err != nil {
		t.Fatalf("Write #1: %v", err)
	}
	if err := s.Write("abcdefghij"); err != nil {
		t.Fatalf("Write #2: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got0, err := os.ReadFile(filepath.Join(dir, "AA", "wiki_00"))
	if err != nil {
		t.Fatalf("read wiki_00: %v", err)
	}
	if string(got0) != "0123456789" {
		t.Errorf("wiki_00 = %q", got0)
	}

	got1, err := os.ReadFile(filepath.Join(dir, "AA", "wiki_01"))
	if err != nil {
		t.Fatalf("read wiki_01: %v", err)
	}
	if string(got1) != "abcdefghij" {
		t.Errorf("wiki_01 = %q", got1)
	}
}

func TestSplitterRotatesDirectoryAfter100Files(t *testing.T) {
	dir := t.TempDir()
	s := &Splitter{Dir: dir, Bytes: 1}

	for i := 0; i < 101; i++ {
		if err := s.Write("x"); err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "AA", "wiki_99")); err != nil {
		t.Errorf("AA/wiki_99 missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "AB", "wiki_00")); err != nil {
		t.Errorf("AB/wiki_00 missing: %v", err)
	}
}

func TestSplitterNamesCompressedFilesWithBz2Suffix(t *testing.T) {
	dir := t.TempDir()
	s := &Splitter{Dir: dir, Bytes: minBytesPerFile, Compress: true}

	if err := s.Write("hello wiki"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(dir, "AA", "wiki_00.bz2")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	br, err := dsnetbzip2.NewReader(f, nil)
	if err != nil {
		t.Fatalf("bzip2 NewReader: %v", err)
	}
	got, err := io.ReadAll(br)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello wiki" {
		t.Errorf("decompressed content = %q, want %q", got, "hello wiki")
	}
}

func TestSplitterCloseWithNoWritesIsNoop(t *testing.T) {
	s := NewSplitter(t.TempDir(), minBytesPerFile, false)
	if err := s.Close(); err != nil {
		t.Errorf("Close on unused Splitter: %v", err)
	}
}
