package moderation

import "testing"

func testFilter() *Filter {
	return NewFilterWithTerms([]string{
		"badword",
		"grim",
		"kill yourself",
		"free bitcoin",
	})
}

func TestCheck_CleanMessagePasses(t *testing.T) {
	f := testFilter()

	for _, text := range []string{
		"hello how are you",
		"I like hiking and movies",
		"what's your favorite food?",
		"",
	} {
		if res := f.Check(text); res.Blocked {
			t.Errorf("clean message blocked: %q (reason=%s term=%s)", text, res.Reason, res.Term)
		}
	}
}

func TestCheck_BlockedKeyword(t *testing.T) {
	f := testFilter()

	cases := []string{
		"badword",
		"you are a BADWORD",
		"badword!!!",
		"so...badword...yeah",
	}
	for _, text := range cases {
		res := f.Check(text)
		if !res.Blocked {
			t.Errorf("expected %q blocked", text)
			continue
		}
		if res.Reason != "blocked_keyword" || res.Term != "badword" {
			t.Errorf("Check(%q) = %+v", text, res)
		}
	}
}

func TestCheck_KeywordInsideWordNotBlocked(t *testing.T) {
	f := testFilter()

	// "grim" is blocked but "pilgrim" is an innocent token.
	if res := f.Check("the pilgrim walked on"); res.Blocked {
		t.Errorf("substring must not match: %+v", res)
	}
}

func TestCheck_LeetspeakNormalized(t *testing.T) {
	f := testFilter()

	cases := []string{
		"b4dword",
		"badw0rd",
		"b@dword",
		"B4DW0RD",
	}
	for _, text := range cases {
		res := f.Check(text)
		if !res.Blocked || res.Reason != "blocked_keyword" {
			t.Errorf("leet variant %q escaped the filter: %+v", text, res)
		}
	}
}

func TestCheck_BlockedPhrase(t *testing.T) {
	f := testFilter()

	res := f.Check("just kill yourself already")
	if !res.Blocked || res.Reason != "blocked_phrase" || res.Term != "kill yourself" {
		t.Errorf("expected phrase block, got %+v", res)
	}

	// Phrase matching respects token boundaries.
	if res := f.Check("kill yourselves in the game lobby"); res.Blocked && res.Reason == "blocked_phrase" {
		t.Errorf("partial phrase must not match: %+v", res)
	}
}

func TestCheck_PhraseSurvivesPunctuation(t *testing.T) {
	f := testFilter()

	res := f.Check("get free, bitcoin now")
	if !res.Blocked || res.Term != "free bitcoin" {
		t.Errorf("punctuation between phrase words should not defeat it: %+v", res)
	}
}

func TestCheck_DefaultBlocklistLoaded(t *testing.T) {
	f := NewFilter()

	if res := f.Check("kys"); !res.Blocked {
		t.Error("default blocklist should block kys")
	}
	if res := f.Check("nice weather today"); res.Blocked {
		t.Errorf("default blocklist false positive: %+v", res)
	}
}

func TestNewFilterWithTerms_IgnoresBlankEntries(t *testing.T) {
	f := NewFilterWithTerms([]string{"", "  ", "ok"})
	if len(f.words) != 1 {
		t.Errorf("expected 1 word, got %d", len(f.words))
	}
}

func TestScreen_AdapterMatchesCheck(t *testing.T) {
	f := testFilter()

	blocked, reason, term := f.Screen("badword")
	if !blocked || reason != "blocked_keyword" || term != "badword" {
		t.Errorf("Screen mismatch: %v %q %q", blocked, reason, term)
	}

	blocked, _, _ = f.Screen("all good")
	if blocked {
		t.Error("Screen blocked a clean message")
	}
}

func TestScreenName(t *testing.T) {
	f := testFilter()

	cases := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"  alice  ", "alice"},
		{"", "Stranger"},
		{"   ", "Stranger"},
		{"badword", "Stranger"},
		{"b4dword", "Stranger"},
	}
	for _, c := range cases {
		if got := f.ScreenName(c.in); got != c.want {
			t.Errorf("ScreenName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeLeet(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"h3llo", "hello"},
		{"n00b", "noob"},
		{"c@t", "cat"},
		{"$ale", "sale"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := normalizeLeet(c.in); got != c.want {
			t.Errorf("normalizeLeet(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTokenizePlain(t *testing.T) {
	got := tokenizePlain("hello, world! it's me")
	want := []string{"hello", "world", "it", "s", "me"}
	if len(got) != len(want) {
		t.Fatalf("tokenizePlain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
