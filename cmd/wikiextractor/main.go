/*
Command wikiextractor extracts clean text from a MediaWiki XML dump.

# Installation

To install the latest version of wikiextractor, run:

	go install github.com/wikiextractor/wikix/cmd/wikiextractor@latest

# Usage

	wikiextractor [flags] input

input is a dump file path, or "-" to read from stdin. Plain, .bz2, and .gz
input are all accepted based on filename suffix.

# Flags

	-o DIR          output directory ("-" for stdout; default "text")
	-b N[KMG]       bytes per output file (default 1M, minimum 200K)
	-c              compress output files with bzip2
	--templates PATH
	                read preprocessed templates from PATH, or write them
	                there after preprocessing the input dump
	--no-templates  skip template expansion entirely
	-l, --links     keep internal/external links
	-s, --sections  keep section headings
	-ns LIST        comma-separated accepted link namespaces (default w,wiktionary,wikt)
	--html          emit HTML formatting instead of plain text
	--processes N   worker count (default: CPU count - 1)
	-json           emit one JSON object per line instead of <doc> blocks
	-q, --debug, -v verbosity flags
	-a, --article TITLE
	                extract only the named article, to stdout, for debugging
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/jcelliott/lumber"

	"github.com/wikiextractor/wikix"
	"github.com/wikiextractor/wikix/dump"
	"github.com/wikiextractor/wikix/pipeline"
	"github.com/wikiextractor/wikix/sink"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("wikiextractor", flag.ContinueOnError)
	outDir := fs.String("o", "text", "output directory, or - for stdout")
	bytesFlag := fs.String("b", "1M", "bytes per output file")
	compress := fs.Bool("c", false, "compress output files with bzip2")
	templatesPath := fs.String("templates", "", "read or write preprocessed templates at PATH")
	noTemplates := fs.Bool("no-templates", false, "skip template expansion")
	links := fs.Bool("l", false, "keep links")
	fs.BoolVar(links, "links", false, "keep links")
	sections := fs.Bool("s", false, "keep section headings")
	fs.BoolVar(sections, "sections", false, "keep section headings")
	nsFlag := fs.String("ns", "w,wiktionary,wikt", "accepted link namespaces")
	htmlOut := fs.Bool("html", false, "emit HTML formatting")
	processes := fs.Int("processes", runtime.NumCPU()-1, "worker count")
	jsonOut := fs.Bool("json", false, "emit JSON lines instead of <doc> blocks")
	quiet := fs.Bool("q", false, "quiet")
	debug := fs.Bool("debug", false, "debug logging")
	verbose := fs.Bool("v", false, "verbose logging")
	article := fs.String("a", "", "extract only this article title, to stdout")
	fs.StringVar(article, "article", "", "extract only this article title, to stdout")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "wikiextractor: exactly one input argument required")
		return 2
	}
	input := fs.Arg(0)

	level := lumber.WARN
	switch {
	case *debug:
		level = lumber.DEBUG
	case *verbose:
		level = lumber.INFO
	case *quiet:
		level = lumber.ERROR
	}
	log := lumber.NewConsoleLogger(level)

	bytesPerFile, err := parseByteSize(*bytesFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wikiextractor: -b: %v\n", err)
		return 2
	}
	if *processes < 1 {
		*processes = 1
	}

	r, err := dump.Open(input)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer r.Close()

	rd := dump.NewReader(r)
	ns := wikix.DefaultNamespaceTable()
	store := wikix.NewStore(ns)
	store.TemplateNamespace = rd.Site.TemplateNamespace() + ":"

	if *templatesPath != "" {
		built, err := loadOrBuildTemplates(rd, store, *templatesPath, log)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		if built {
			// rebuild the reader: template preprocessing consumed the dump.
			r.Close()
			r, err = dump.Open(input)
			if err != nil {
				log.Error("%v", err)
				return 1
			}
			defer r.Close()
			rd = dump.NewReader(r)
		}
	} else if !*noTemplates {
		if err := buildTemplates(rd, store, log); err != nil {
			log.Error("%v", err)
			return 1
		}
		// rebuild the reader: template preprocessing consumed the dump.
		r.Close()
		r, err = dump.Open(input)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		defer r.Close()
		rd = dump.NewReader(r)
	}

	cleanOpts := wikix.CleanOptions{
		Templates: !*noTemplates,
		Links:     *links,
		Sections:  *sections,
		HTML:      *htmlOut,
	}
	if *nsFlag != "" {
		accepted := make(map[string]bool)
		for _, ns := range strings.Split(*nsFlag, ",") {
			accepted[strings.ToLower(strings.TrimSpace(ns))] = true
		}
		cleanOpts.AcceptedNamespaces = accepted
	}

	if *article != "" {
		return runSingleArticle(rd, store, cleanOpts, *article, log)
	}

	var out pipeline.Sink
	if *outDir == "-" {
		out = stdoutSink{}
	} else {
		s := sink.NewSplitter(*outDir, bytesPerFile, *compress)
		defer s.Close()
		out = s
	}

	counts, err := pipeline.Run(rd, store, out, pipeline.Options{
		Workers: *processes,
		Clean:   cleanOpts,
		JSON:    *jsonOut,
		Log:     log,
		URLBase: rd.Site.URLBase(),
	})
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Info("done: %d soft failures across the run", counts.Total())
	return 0
}

type stdoutSink struct{}

func (stdoutSink) Write(text string) error {
	_, err := fmt.Print(text)
	return err
}

func buildTemplates(rd *dump.Reader, store *wikix.Store, log *lumber.ConsoleLogger) error {
	for {
		p, err := rd.Next()
		if err != nil {
			return nil
		}
		if strings.HasPrefix(p.Title, store.TemplateNamespace) {
			if store.Add(p.Title, p.Text) {
				log.Debug("template redefined: %s", p.Title)
			}
		}
	}
}

// loadOrBuildTemplates loads a previously-saved template cache from path, or
// builds one from rd (consuming it to EOF) and saves it there if the cache
// doesn't exist yet. built reports whether it consumed rd, so the caller
// knows to reopen the dump before streaming pages from it.
func loadOrBuildTemplates(rd *dump.Reader, store *wikix.Store, path string, log *lumber.ConsoleLogger) (built bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, loadTemplates(store, path)
	}
	if err := buildTemplates(rd, store, log); err != nil {
		return false, err
	}
	if err := saveTemplates(store, path); err != nil {
		return false, err
	}
	return true, nil
}

func runSingleArticle(rd *dump.Reader, store *wikix.Store, opts wikix.CleanOptions, title string, log *lumber.ConsoleLogger) int {
	for {
		p, err := rd.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "wikiextractor: article %q not found\n", title)
			return 1
		}
		if p.Title != title {
			continue
		}
		counts := &wikix.Counters{}
		pc := &wikix.PageContext{Title: p.Title, FullTitle: p.Title}
		ex := wikix.NewExtractor(store, pc, counts)
		lines := wikix.CleanMarkup(p.Text, opts, ex)
		url := fmt.Sprintf("%s?curid=%s", rd.Site.URLBase(), p.ID)
		doc := &wikix.Doc{ID: p.ID, URL: url, Title: p.Title, Lines: lines}
		fmt.Print(doc.Text())
		if counts.Total() > 0 {
			log.Warn("%d soft failures", counts.Total())
		}
		return 0
	}
}

func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	switch suffix := s[len(s)-1]; suffix {
	case 'K', 'k':
		mult = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
