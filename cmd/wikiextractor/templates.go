package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/wikiextractor/wikix"
)

// saveTemplates writes every stored template's raw body to path in a
// simple length-prefixed record format: "TITLE\tBYTELEN\n" followed by
// BYTELEN raw bytes and a trailing newline. This avoids escaping concerns
// entirely, unlike a line-oriented or JSON format, since template bodies
// routinely contain any byte a dump can contain.
func saveTemplates(store *wikix.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wikiextractor: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for title, body := range store.Snapshot() {
		fmt.Fprintf(w, "%s\t%d\n", title, len(body))
		w.WriteString(body)
		w.WriteByte('\n')
	}
	return w.Flush()
}

// loadTemplates reads a file written by [saveTemplates] back into store.
func loadTemplates(store *wikix.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("wikiextractor: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		header, err := r.ReadString('\n')
		if err != nil {
			return nil
		}
		title, lenStr, ok := cutLast(header[:len(header)-1], '\t')
		if !ok {
			return fmt.Errorf("wikiextractor: %s: malformed header %q", path, header)
		}
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return fmt.Errorf("wikiextractor: %s: malformed length %q", path, lenStr)
		}
		body := make([]byte, n)
		if _, err := readFull(r, body); err != nil {
			return fmt.Errorf("wikiextractor: %s: %w", path, err)
		}
		r.ReadByte() // trailing newline
		store.AddRaw(title, string(body))
	}
}

func cutLast(s string, sep byte) (before, after string, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
