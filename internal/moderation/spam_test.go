package moderation

import "testing"

func TestSpam_URLs(t *testing.T) {
	f := NewFilterWithTerms(nil)

	blocked := []string{
		"check out https://totally-legit.example/win",
		"visit www.freestuff.biz now",
		"go to scamsite.com/offer",
	}
	for _, text := range blocked {
		res := f.Check(text)
		if !res.Blocked || res.Reason != "spam_pattern" || res.Term != "url" {
			t.Errorf("expected url block for %q, got %+v", text, res)
		}
	}

	clean := []string{
		"the version is v2.0 now",
		"pi is about 3.14",
		"i got 99 problems",
	}
	for _, text := range clean {
		if res := f.Check(text); res.Blocked {
			t.Errorf("false positive for %q: %+v", text, res)
		}
	}
}

func TestSpam_PhoneNumbers(t *testing.T) {
	f := NewFilterWithTerms(nil)

	blocked := []string{
		"call me at 555-123-4567",
		"text +1 555 123 4567 ok",
		"my number is (555) 123-4567",
	}
	for _, text := range blocked {
		res := f.Check(text)
		if !res.Blocked || res.Term != "phone" {
			t.Errorf("expected phone block for %q, got %+v", text, res)
		}
	}

	if res := f.Check("i am 25 years old"); res.Blocked {
		t.Errorf("short digit runs must pass: %+v", res)
	}
}

func TestSpam_CharFlood(t *testing.T) {
	f := NewFilterWithTerms(nil)

	res := f.Check("hiiiiiiii")
	if !res.Blocked || res.Term != "char_flood" {
		t.Errorf("expected char_flood, got %+v", res)
	}

	if res := f.Check("wheee"); res.Blocked {
		t.Errorf("4 repeats must pass: %+v", res)
	}
}

func TestSpam_WordFlood(t *testing.T) {
	f := NewFilterWithTerms(nil)

	res := f.Check("buy buy buy")
	if !res.Blocked || res.Term != "word_flood" {
		t.Errorf("expected word_flood, got %+v", res)
	}

	// Case-insensitive repetition.
	res = f.Check("Spam SPAM spam")
	if !res.Blocked || res.Term != "word_flood" {
		t.Errorf("expected case-insensitive word_flood, got %+v", res)
	}

	if res := f.Check("no no way"); res.Blocked {
		t.Errorf("two repeats must pass: %+v", res)
	}
}

func TestHasCharFlood(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"aaaaa", true},
		{"aaaa", false},
		{"abababab", false},
		{"", false},
		{"!!!!!!", true},
	}
	for _, c := range cases {
		if got := hasCharFlood(c.in); got != c.want {
			t.Errorf("hasCharFlood(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestHasWordFlood(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"go go go", true},
		{"go go stop", false},
		{"one two", false},
		{"", false},
	}
	for _, c := range cases {
		if got := hasWordFlood(c.in); got != c.want {
			t.Errorf("hasWordFlood(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
