// Package article turns model-authored text fragments and product groups
// into publishable HTML articles. The model's output is treated as
// untrusted input: tags are parsed tolerantly, unknown product
// references are dropped, and structural markup (images, prices, buy
// buttons) is always injected by the assembler rather than trusted from
// the model.
package article

import (
	"regexp"
	"strconv"
	"strings"
)

// Fragment is the structured result extracted from one model completion.
type Fragment struct {
	// Headline and Subheadline are the model's proposed title and lede.
	Headline    string
	Subheadline string
	// Intro and Closing are free HTML blocks bracketing the product
	// sections.
	Intro   string
	Closing string
	// Blocks are the per-product text sections in the order the model
	// referenced them. IDs are 1-based positions in the product group
	// sent to the model.
	Blocks []ProductBlock
}

// ProductBlock is the model's free-text section for one product.
type ProductBlock struct {
	ID   int
	HTML string
}

var (
	headlineRe    = regexp.MustCompile(`(?is)<titular>(.*?)</titular>`)
	subheadlineRe = regexp.MustCompile(`(?is)<entradilla>(.*?)</entradilla>`)
	introRe       = regexp.MustCompile(`(?is)<intro>(.*?)</intro>`)
	closingRe     = regexp.MustCompile(`(?is)<cierre>(.*?)</cierre>`)
	productRe     = regexp.MustCompile(`(?is)<producto\s+id\s*=\s*"?(\d+)"?\s*>(.*?)</producto>`)
)

// ParseFragment extracts the structured sections from raw model output.
// Extraction is tolerant: a missing tag yields an empty string, never an
// error, and anything outside the known tags is ignored. A completion
// with no recognizable tags at all is kept whole as the introduction so
// a model that ignored the output format still produces an article body.
func ParseFragment(text string) Fragment {
	frag := Fragment{
		Headline:    firstGroup(headlineRe, text),
		Subheadline: firstGroup(subheadlineRe, text),
		Intro:       firstGroup(introRe, text),
		Closing:     firstGroup(closingRe, text),
	}
	for _, m := range productRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			continue
		}
		frag.Blocks = append(frag.Blocks, ProductBlock{ID: id, HTML: strings.TrimSpace(m[2])})
	}
	if frag.Headline == "" && frag.Subheadline == "" && frag.Intro == "" &&
		frag.Closing == "" && len(frag.Blocks) == 0 {
		frag.Intro = strings.TrimSpace(text)
	}
	return frag
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
