// Package pipeline wires the reader/worker/reducer extraction pipeline
// (spec.md §4.6): one reader goroutine, N worker goroutines sharing a
// read-only template store, and one reducer goroutine that restores dump
// order before handing finished documents to a sink. The channel/worker
// shape follows the fan-out-fan-in pattern of the wikikit and
// wikireader_fastparser examples; job ordering and the reorder buffer are
// this package's own addition (neither example needed strict ordering).
package pipeline

import (
	"fmt"
	"sync"

	"github.com/jcelliott/lumber"

	"github.com/wikiextractor/wikix"
	"github.com/wikiextractor/wikix/dump"
)

// Sink is anything that can receive a fully rendered document in strict
// dump order. *sink.Splitter satisfies this.
type Sink interface {
	Write(text string) error
}

// Options configures one pipeline run.
type Options struct {
	Workers int
	Clean   wikix.CleanOptions
	JSON    bool
	Log     *lumber.ConsoleLogger

	// URLBase is the wiki's article-view URL prefix (dump.SiteInfo.URLBase),
	// used to build each document's "URLBASE?curid=ID" url attribute
	// (spec.md §6).
	URLBase string
}

type job struct {
	ordinal int
	page    *dump.Page
}

type result struct {
	ordinal int
	text    string
}

// Run drains pages from rd, extracts each accepted article concurrently
// across opts.Workers workers, and writes the results to out in strict
// ordinal (dump) order (spec.md P3). store must already be fully built
// from the dump's template-namespace pages before Run is called. It
// returns the aggregate soft-failure counters across every processed page.
func Run(rd *dump.Reader, store *wikix.Store, out Sink, opts Options) (*wikix.Counters, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Log
	if log == nil {
		log = lumber.NewConsoleLogger(lumber.WARN)
	}

	jobs := make(chan job, 10*opts.Workers)
	results := make(chan result, 10*opts.Workers)
	totals := &wikix.Counters{}
	var totalsMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer wg.Done()
			worker(jobs, results, store, opts, log, totals, &totalsMu)
		}()
	}

	done := make(chan error, 1)
	go func() {
		done <- reduce(results, out, log)
	}()

	ordinal := 0
	for {
		p, err := rd.Next()
		if err != nil {
			break
		}
		if !accepted(p, store.TemplateNamespace) {
			continue
		}
		jobs <- job{ordinal: ordinal, page: p}
		ordinal++
	}
	close(jobs)

	wg.Wait()
	close(results)

	if err := <-done; err != nil {
		return totals, err
	}
	return totals, nil
}

func accepted(p *dump.Page, templateNS string) bool {
	if p.Redirect {
		return false
	}
	if hasNamespacePrefix(p.Title, templateNS) {
		return false
	}
	return true
}

func hasNamespacePrefix(title, ns string) bool {
	if len(title) <= len(ns) {
		return false
	}
	return title[:len(ns)] == ns
}

func worker(jobs <-chan job, results chan<- result, store *wikix.Store, opts Options, log *lumber.ConsoleLogger, totals *wikix.Counters, totalsMu *sync.Mutex) {
	for j := range jobs {
		text := renderPage(j.page, store, opts, log, totals, totalsMu)
		results <- result{ordinal: j.ordinal, text: text}
	}
}

// renderPage never lets a panic from one adversarial page escape: it logs
// and emits the page as empty, per spec.md §5's "a failed worker should log
// and continue" cancellation rule.
func renderPage(p *dump.Page, store *wikix.Store, opts Options, log *lumber.ConsoleLogger, totals *wikix.Counters, totalsMu *sync.Mutex) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("page %q: panic during extraction: %v", p.Title, r)
			text = ""
		}
	}()

	counts := &wikix.Counters{}
	pc := &wikix.PageContext{
		Title:     p.Title,
		FullTitle: p.Title,
	}
	ex := wikix.NewExtractor(store, pc, counts)

	lines := wikix.CleanMarkup(p.Text, opts.Clean, ex)

	doc := &wikix.Doc{ID: p.ID, URL: fmt.Sprintf("%s?curid=%s", opts.URLBase, p.ID), Title: p.Title, Lines: lines}

	if counts.Total() > 0 {
		log.Warn("page %q: %d soft failures (recursion=%d param-recursion=%d template-miss=%d)",
			p.Title, counts.Total(), counts.RecursionExceeded, counts.ParamRecursionExceeded, counts.TemplateMiss)
	}
	totalsMu.Lock()
	totals.Add(counts)
	totalsMu.Unlock()

	if opts.JSON {
		return doc.JSONLine() + "\n"
	}
	return doc.Text()
}

// reduce restores dump order from the (possibly out-of-order) results
// channel using a small reorder buffer keyed by ordinal, emitting to out as
// soon as the next expected ordinal is available (spec.md §4.6).
func reduce(results <-chan result, out Sink, log *lumber.ConsoleLogger) error {
	pending := make(map[int]string)
	next := 0

	for r := range results {
		pending[r.ordinal] = r.text
		for {
			text, ok := pending[next]
			if !ok {
				break
			}
			if err := out.Write(text); err != nil {
				return fmt.Errorf("pipeline: sink write: %w", err)
			}
			delete(pending, next)
			next++
		}
	}

	if len(pending) > 0 {
		log.Warn("reducer: %d buffered documents never reached ordinal order; dump ordinals were non-contiguous", len(pending))
	}
	return nil
}
