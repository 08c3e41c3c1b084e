package wikix

import (
	"errors"
	"testing"
)

func TestFatalErrorMessage(t *testing.T) {
	err := &FatalError{Title: "Albert Einstein", Err: errors.New("truncated XML")}
	want := `wikix: page "Albert Einstein": truncated XML`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noTitle := &FatalError{Err: errors.New("boom")}
	if got := noTitle.Error(); got != "wikix: boom" {
		t.Errorf("Error() (no title) = %q, want %q", got, "wikix: boom")
	}
}

func TestFatalErrorUnwrap(t *testing.T) {
	inner := errors.New("disk gone")
	err := &FatalError{Err: inner}
	if !errors.Is(err, inner) {
		t.Errorf("errors.Is did not see through FatalError.Unwrap")
	}
}

func TestCountersAddAndTotal(t *testing.T) {
	total := &Counters{}
	total.Add(&Counters{
		RecursionExceeded:      1,
		ParamRecursionExceeded: 2,
		TemplateMiss:           3,
		EmptyTitle:             4,
		ParserFuncErrors:       5,
	})
	total.Add(&Counters{RecursionExceeded: 1})
	total.Add(nil)

	if total.RecursionExceeded != 2 || total.ParamRecursionExceeded != 2 ||
		total.TemplateMiss != 3 || total.EmptyTitle != 4 || total.ParserFuncErrors != 5 {
		t.Errorf("Add did not accumulate correctly: %+v", total)
	}
	if total.Total() != 16 {
		t.Errorf("Total() = %d, want 16", total.Total())
	}
}
