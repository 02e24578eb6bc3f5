package tagname

import (
	"reflect"
	"testing"
	"unicode"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"base", "base"},
		{"Feature Epic", "feature-epic"},
		{"  add_stripe  ", "add-stripe"},
		{"snake__case\tand  spaces", "snake-case-and-spaces"},
		{"--leading-and-trailing--", "leading-and-trailing"},
		{"a---b", "a-b"},
		{"Q3 Roadmap!", "q3-roadmap"},
		{"!!!", ""},
		{"", ""},
		{"émigré", "migr"},
		{"v1.2.3", "v123"},
		{"feature\u00a0epic", "feature-epic"},
		{"tab\vbed", "tab-bed"},
		{"wide\u3000gap", "wide-gap"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Feature Epic", "__x__", "A - B", "a_-_b", "---", "Ünïcödé tag", "x y\tz",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"base", "feature-epic", "a", "123", "a-1"}
	for _, v := range valid {
		if !IsValid(v) {
			t.Errorf("IsValid(%q) = false, want true", v)
		}
	}
	invalid := []string{"", "Base", "with space", "under_score", "dot.ted", "!!!"}
	for _, v := range invalid {
		if IsValid(v) {
			t.Errorf("IsValid(%q) = true, want false", v)
		}
	}
}

func TestValidAfterNormalizeMatchesAlphanumericContent(t *testing.T) {
	inputs := []string{"!!!", "   ", "_-_", "a", "!a!", "Feature Epic", "ß", "9"}
	for _, in := range inputs {
		hasASCIIAlnum := false
		for _, r := range in {
			lr := unicode.ToLower(r)
			if (lr >= 'a' && lr <= 'z') || (lr >= '0' && lr <= '9') {
				hasASCIIAlnum = true
				break
			}
		}
		if got := IsValid(Normalize(in)); got != hasASCIIAlnum {
			t.Errorf("IsValid(Normalize(%q)) = %v, want %v", in, got, hasASCIIAlnum)
		}
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault("!!!"); got != Default {
		t.Errorf("OrDefault(!!!) = %q, want %q", got, Default)
	}
	if got := OrDefault("Work Stuff"); got != "work-stuff" {
		t.Errorf("OrDefault(Work Stuff) = %q", got)
	}
}

func TestSortForDisplay(t *testing.T) {
	got := SortForDisplay([]string{"zeta", "base", "alpha", "alpha"}, "base")
	want := []string{"base", "alpha", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortForDisplay = %v, want %v", got, want)
	}

	got = SortForDisplay([]string{"b", "a"}, "base")
	want = []string{"base", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortForDisplay with missing first = %v, want %v", got, want)
	}

	got = SortForDisplay([]string{"b", "a"}, "")
	want = []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortForDisplay without first = %v, want %v", got, want)
	}
}
