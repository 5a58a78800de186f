package article

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"rotativa/internal/catalog"
)

// BuyButtonLabel is the visible text of every injected buy button.
const BuyButtonLabel = "Ver en Amazon"

// buyButtonClass marks assembler-owned buy buttons so re-assembly never
// doubles them.
const buyButtonClass = "boton-comprar"

// Article is the final assembled output for one product group.
type Article struct {
	// Title and Subtitle are what the export layer publishes.
	Title    string
	Subtitle string
	// Body is the full HTML body.
	Body string
	// ModelSubtitle keeps the model's raw subheadline for audit even
	// when the published subtitle differs.
	ModelSubtitle string
}

// blockKind enumerates the typed blocks an article body is built from.
// Rendering to markup happens only once the whole sequence is final.
type blockKind int

const (
	blockRawHTML blockKind = iota
	blockHeading
	blockImage
	blockPrice
	blockButton
)

type bodyBlock struct {
	kind    blockKind
	text    string
	url     string
	altText string
}

// Assemble interleaves a parsed fragment with its product group. Each
// product referenced by the model appears once, in the model's
// reference order, rendered as heading, optional image, model text,
// optional price line, and exactly one buy button. References to
// products outside the group are dropped, repeated references are kept
// only the first time, and products the model never mentioned are
// appended after the referenced ones so nothing sent to the model is
// lost from the page.
func Assemble(frag Fragment, group []catalog.Product) Article {
	var blocks []bodyBlock
	if frag.Intro != "" {
		blocks = append(blocks, bodyBlock{kind: blockRawHTML, text: frag.Intro})
	}

	covered := make(map[int]bool, len(group))
	for _, pb := range frag.Blocks {
		if pb.ID < 1 || pb.ID > len(group) || covered[pb.ID] {
			continue
		}
		covered[pb.ID] = true
		blocks = append(blocks, productBlocks(group[pb.ID-1], pb.HTML)...)
	}
	for i, product := range group {
		if !covered[i+1] {
			blocks = append(blocks, productBlocks(product, "")...)
		}
	}

	if frag.Closing != "" {
		blocks = append(blocks, bodyBlock{kind: blockRawHTML, text: frag.Closing})
	}

	return Article{
		Title:         frag.Headline,
		Subtitle:      frag.Subheadline,
		Body:          normalizeMarketplaceAnchors(render(blocks)),
		ModelSubtitle: frag.Subheadline,
	}
}

func productBlocks(product catalog.Product, modelHTML string) []bodyBlock {
	name := product.DisplayName()
	blocks := []bodyBlock{{kind: blockHeading, text: name}}
	if strings.TrimSpace(product.ImageURL) != "" {
		blocks = append(blocks, bodyBlock{kind: blockImage, url: product.ImageURL, altText: name})
	}
	if text := stripBuyButtons(modelHTML); text != "" {
		blocks = append(blocks, bodyBlock{kind: blockRawHTML, text: text})
	}
	if product.HasPrice() {
		blocks = append(blocks, bodyBlock{kind: blockPrice, text: product.Price})
	}
	target := product.AffiliateURL
	if strings.TrimSpace(target) == "" {
		target = product.ProductURL
	}
	if strings.TrimSpace(target) != "" {
		blocks = append(blocks, bodyBlock{kind: blockButton, url: target, altText: name})
	}
	return blocks
}

func render(blocks []bodyBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch blk.kind {
		case blockHeading:
			fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(blk.text))
		case blockImage:
			fmt.Fprintf(&b,
				"<figure class=\"product-figure\"><img src=%q alt=%q loading=\"lazy\" /></figure>\n",
				blk.url, blk.altText)
		case blockPrice:
			fmt.Fprintf(&b, "<p class=\"product-price\">Precio: %s</p>\n", html.EscapeString(blk.text))
		case blockButton:
			fmt.Fprintf(&b,
				"<p class=\"buy-button\"><a class=%q href=%q rel=\"sponsored nofollow noopener\" target=\"_blank\">%s</a></p>\n",
				buyButtonClass, blk.url, BuyButtonLabel)
		default:
			b.WriteString(strings.TrimSpace(blk.text))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

var buyButtonRe = regexp.MustCompile(
	`(?is)<(?:a|button)\b[^>]*` + buyButtonClass + `[^>]*>.*?</(?:a|button)>`)

var buttonLabelAnchorRe = regexp.MustCompile(`(?is)<a\b[^>]*>\s*` + BuyButtonLabel + `\s*</a>`)

// stripBuyButtons removes any buy-button markup the model invented from
// its text segment. Button placement belongs to the assembler alone.
func stripBuyButtons(text string) string {
	text = buyButtonRe.ReplaceAllString(text, "")
	text = buttonLabelAnchorRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

var anchorTagRe = regexp.MustCompile(`(?is)<a\s+[^>]*>`)
var attrRe = regexp.MustCompile(`(?is)\s+(href|rel|target)\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)

// normalizeMarketplaceAnchors rewrites every anchor pointing at the
// marketplace to carry the sponsored rel set and open in a new tab,
// regardless of what the model produced.
func normalizeMarketplaceAnchors(body string) string {
	return anchorTagRe.ReplaceAllStringFunc(body, func(tag string) string {
		href := ""
		for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
			if strings.EqualFold(m[1], "href") {
				href = strings.Trim(m[2], `"'`)
			}
		}
		if !isMarketplaceURL(href) {
			return tag
		}
		stripped := attrRe.ReplaceAllString(tag[:len(tag)-1], "")
		return fmt.Sprintf("%s href=%q rel=\"sponsored nofollow noopener\" target=\"_blank\">", stripped, href)
	})
}

func isMarketplaceURL(href string) bool {
	lower := strings.ToLower(href)
	return strings.Contains(lower, "amazon.") || strings.Contains(lower, "amzn.")
}
