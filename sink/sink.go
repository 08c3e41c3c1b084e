// Package sink implements the output splitter (spec.md §6): rotating
// plain or bzip2-compressed files across AA..ZZ directories, grounded on
// the NextFile sequence in the original Python splitter (original_source's
// tests.py exercises "AA/wiki_00", "AA/wiki_01", ... "AA/wiki_99",
// "AB/wiki_00", ...).
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
)

const (
	minBytesPerFile = 200 * 1024
	lettersPerDir   = 26
	filesPerDir     = 100
)

// Splitter writes a sequence of documents to disk, rotating to a new file
// once the current one reaches Bytes, and to a new directory once the
// current one holds 100 files (spec.md §6).
type Splitter struct {
	Dir      string
	Bytes    int64 // bytes per file; NewSplitter clamps it to a minimum of 200 KiB
	Compress bool

	dirIdx  int // 0 = AA, 1 = AB, ..., 675 = ZZ
	fileIdx int // 0..99 within the current directory

	curRaw  *os.File
	bzw     *bzip2.Writer
	buf     *bufio.Writer
	written int64
}

// NewSplitter returns a Splitter writing under dir. bytesPerFile is
// clamped to the 200 KiB minimum (spec.md §6).
func NewSplitter(dir string, bytesPerFile int64, compress bool) *Splitter {
	if bytesPerFile < minBytesPerFile {
		bytesPerFile = minBytesPerFile
	}
	return &Splitter{Dir: dir, Bytes: bytesPerFile, Compress: compress}
}

// Write appends text (expected to be one already-newline-terminated <doc>
// block or JSON line) to the current output file, rotating first if the
// current file is empty (first call) or already at capacity.
func (s *Splitter) Write(text string) error {
	if s.buf == nil || s.written >= s.Bytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}
	n, err := s.buf.WriteString(text)
	s.written += int64(n)
	return err
}

func (s *Splitter) rotate() error {
	if err := s.closeCurrent(); err != nil {
		return err
	}

	dirName := dirForIndex(s.dirIdx)
	dirPath := filepath.Join(s.Dir, dirName)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("sink: mkdir %s: %w", dirPath, err)
	}

	name := fmt.Sprintf("wiki_%02d", s.fileIdx)
	if s.Compress {
		name += ".bz2"
	}
	path := filepath.Join(dirPath, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: create %s: %w", path, err)
	}
	s.curRaw = f

	var w io.Writer = f
	if s.Compress {
		bzw, err := bzip2.NewWriter(f, nil)
		if err != nil {
			f.Close()
			return fmt.Errorf("sink: bzip2 writer %s: %w", path, err)
		}
		s.bzw = bzw
		w = bzw
	}
	s.buf = bufio.NewWriter(w)
	s.written = 0

	s.fileIdx++
	if s.fileIdx >= filesPerDir {
		s.fileIdx = 0
		s.dirIdx++
	}
	return nil
}

func (s *Splitter) closeCurrent() error {
	if s.buf != nil {
		if err := s.buf.Flush(); err != nil {
			return err
		}
		s.buf = nil
	}
	if s.bzw != nil {
		if err := s.bzw.Close(); err != nil {
			return err
		}
		s.bzw = nil
	}
	if s.curRaw != nil {
		if err := s.curRaw.Close(); err != nil {
			return err
		}
		s.curRaw = nil
	}
	return nil
}

// Close flushes and closes the current output file, if any.
func (s *Splitter) Close() error {
	return s.closeCurrent()
}

// dirForIndex maps 0, 1, ..., 675 to "AA", "AB", ..., "ZZ".
func dirForIndex(i int) string {
	hi := i / lettersPerDir
	lo := i % lettersPerDir
	return string(rune('A'+hi)) + string(rune('A'+lo))
}
