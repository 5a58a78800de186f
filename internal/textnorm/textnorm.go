package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9ñ]+`)

// suffixes holds the inflectional endings the stemmer may strip, longest first
// so the longest match wins. The list covers plural and gender markers only.
var suffixes = []string{"as", "os", "es", "a", "o", "e", "s"}

const minStemLength = 3

// foldTransformer removes combining marks after NFD decomposition, which turns
// accented vowels into their plain counterparts.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold returns the text with diacritical marks removed.
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		return text
	}
	return folded
}

// Normalize reduces a single word to its stem. Words of three characters or
// fewer are returned unchanged; longer words lose the longest matching suffix
// provided at least three characters remain.
func Normalize(word string) string {
	word = strings.ToLower(Fold(strings.TrimSpace(word)))
	if len([]rune(word)) <= minStemLength {
		return word
	}
	for _, suffix := range suffixes {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		stem := strings.TrimSuffix(word, suffix)
		if len([]rune(stem)) >= minStemLength {
			return stem
		}
	}
	return word
}

// Tokenize splits text into lowercase accent-folded tokens, filtering
// single-character fragments.
func Tokenize(text string) []string {
	lowered := strings.ToLower(Fold(text))
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 2 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// StemSet returns the set of normalized stems for every token in the text.
func StemSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	stems := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		stems[Normalize(token)] = struct{}{}
	}
	return stems
}

// Match reports whether the two phrases share at least one stemmed token.
// Intersection, not equality: the keyword "aspiradora inalámbrica" matches any
// title containing either stem.
func Match(a, b string) bool {
	setA := StemSet(a)
	if len(setA) == 0 {
		return false
	}
	for _, token := range Tokenize(b) {
		if _, ok := setA[Normalize(token)]; ok {
			return true
		}
	}
	return false
}
