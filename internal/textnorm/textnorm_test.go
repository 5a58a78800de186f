package textnorm

import (
	"testing"
)

func TestNormalizeShortWordsUnchanged(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"tv", "tv"},
		{"sol", "sol"},
		{"de", "de"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := Normalize(tt.word); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestNormalizeStripsLongestSuffix(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"aspiradoras", "aspirador"},
		{"aspiradora", "aspirador"},
		{"auriculares", "auricular"},
		{"inalámbricas", "inalambric"},
		{"inalámbrica", "inalambric"},
		{"cafetera", "cafeter"},
		{"cafeteras", "cafeter"},
		{"robot", "robot"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := Normalize(tt.word); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestNormalizeKeepsMinimumStem(t *testing.T) {
	// Stripping "as" from "osas" would leave a two-character stem, so the
	// shorter "s" suffix applies instead.
	if got := Normalize("osas"); got != "osa" {
		t.Errorf("Normalize(osas) = %q, want osa", got)
	}
}

func TestFoldRemovesAccents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"inalámbrica", "inalambrica"},
		{"categoría", "categoria"},
		{"Ratón", "Raton"},
		{"sin acentos", "sin acentos"},
	}

	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenizeFoldsAndLowercases(t *testing.T) {
	got := Tokenize("Aspiradora Inalámbrica X200, 2-en-1")
	want := []string{"aspiradora", "inalambrica", "x200", "en"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokenize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMatchStemSetIntersection(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		title   string
		want    bool
	}{
		{"singular keyword vs plural title", "aspiradora", "Aspiradoras sin cable X200", true},
		{"accented keyword", "aspiradora inalámbrica", "Aspiradora Inalambrica Pro", true},
		{"partial set overlap", "aspiradora inalámbrica", "Escoba eléctrica inalámbrica", true},
		{"no shared stems", "aspiradora", "Lavadora Z", false},
		{"empty keyword", "", "Aspiradora X", false},
		{"empty title", "aspiradora", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.keyword, tt.title); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.keyword, tt.title, got, tt.want)
			}
		})
	}
}
