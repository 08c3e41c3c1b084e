package wikix

import "testing"

func TestMagicWord(t *testing.T) {
	pc := &PageContext{
		Title:     "Albert Einstein",
		Namespace: "",
		FullTitle: "Albert Einstein",
		Year:      "2026",
		Month:     "07",
		Day:       "31",
	}

	cases := []struct {
		name     string
		wantVal  string
		wantOK   bool
	}{
		{"PAGENAME", "Albert Einstein", true},
		{" pagename ", "Albert Einstein", true},
		{"FULLPAGENAME", "Albert Einstein", true},
		{"namespace", "", true},
		{"CURRENTYEAR", "2026", true},
		{"currentmonth", "07", true},
		{"CurrentDay", "31", true},
		{"!", "|", true},
		{"notaword", "", false},
	}
	for _, c := range cases {
		got, ok := magicWord(pc, c.name)
		if ok != c.wantOK || got != c.wantVal {
			t.Errorf("magicWord(%q) = (%q, %v), want (%q, %v)", c.name, got, ok, c.wantVal, c.wantOK)
		}
	}
}

func TestMagicWordNilPageContext(t *testing.T) {
	if _, ok := magicWord(nil, "pagename"); ok {
		t.Errorf("magicWord with nil PageContext should report not found")
	}
}
