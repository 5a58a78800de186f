// Package export serializes assembled articles into the XML schema the
// WordPress importer consumes, optionally bundled into a zip archive
// with per-article markdown companions for editorial review.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"strings"

	"rotativa/internal/article"
)

const (
	// XMLFilename is the archive member holding the importable XML.
	XMLFilename = "articulos.xml"

	postStatus = "draft"
	postType   = "post"
)

// defaultFeaturedImages is the rotation pool used when the caller does
// not supply one. The index is derived from a hash of the title so a
// single-article export still rotates across runs with different
// titles.
var defaultFeaturedImages = []string{
	"https://cdn.rotativa.example/destacadas/ofertas-01.jpg",
	"https://cdn.rotativa.example/destacadas/ofertas-02.jpg",
	"https://cdn.rotativa.example/destacadas/ofertas-03.jpg",
	"https://cdn.rotativa.example/destacadas/ofertas-04.jpg",
	"https://cdn.rotativa.example/destacadas/ofertas-05.jpg",
}

// defaultCategories are the fixed taxonomy terms attached to every
// exported post.
var defaultCategories = []string{"Compras", "Ofertas"}

// Batch is one export request: the assembled articles plus the query
// context used to synthesize titles when the model did not propose one.
type Batch struct {
	Query    string
	Keyword  string
	Articles []article.Article
}

// Formatter renders batches. The zero value uses the default image pool
// and taxonomy terms.
type Formatter struct {
	featuredImages []string
	categories     []string
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithFeaturedImages overrides the featured-image rotation pool.
func WithFeaturedImages(urls []string) FormatterOption {
	return func(f *Formatter) {
		if len(urls) > 0 {
			f.featuredImages = urls
		}
	}
}

// WithCategories overrides the taxonomy terms attached to each post.
func WithCategories(terms []string) FormatterOption {
	return func(f *Formatter) {
		if len(terms) > 0 {
			f.categories = terms
		}
	}
}

// NewFormatter builds a Formatter.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		featuredImages: defaultFeaturedImages,
		categories:     defaultCategories,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type xmlDocument struct {
	XMLName xml.Name  `xml:"items"`
	Items   []xmlItem `xml:"item"`
}

type xmlItem struct {
	Title         string   `xml:"post_title"`
	Excerpt       string   `xml:"post_excerpt"`
	Content       cdata    `xml:"post_content"`
	Status        string   `xml:"post_status"`
	Type          string   `xml:"post_type"`
	FeaturedImage string   `xml:"featured_image,omitempty"`
	Categories    []string `xml:"category"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// XML renders the batch as one importable document. The payload is
// identical whether it is returned inline, written to a file, or placed
// inside an archive.
func (f *Formatter) XML(batch Batch) ([]byte, error) {
	doc := xmlDocument{Items: make([]xmlItem, 0, len(batch.Articles))}
	for _, art := range batch.Articles {
		title := SynthesizeTitle(art.Title, batch.Query, batch.Keyword)
		doc.Items = append(doc.Items, xmlItem{
			Title:         title,
			Excerpt:       excerpt(art),
			Content:       cdata{Text: art.Body},
			Status:        postStatus,
			Type:          postType,
			FeaturedImage: f.FeaturedImage(title),
			Categories:    f.categories,
		})
	}
	encoded, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode xml: %w", err)
	}
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.Write(encoded)
	b.WriteString("\n")
	return b.Bytes(), nil
}

// Zip renders the batch as an archive holding the XML document plus one
// markdown rendering per article for human review.
func (f *Formatter) Zip(batch Batch) ([]byte, error) {
	payload, err := f.XML(batch)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(XMLFilename)
	if err != nil {
		return nil, fmt.Errorf("export: create archive entry: %w", err)
	}
	if _, err := entry.Write(payload); err != nil {
		return nil, fmt.Errorf("export: write archive entry: %w", err)
	}

	for i, art := range batch.Articles {
		name := fmt.Sprintf("articulo_%02d.md", i+1)
		entry, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("export: create %s: %w", name, err)
		}
		title := SynthesizeTitle(art.Title, batch.Query, batch.Keyword)
		md := fmt.Sprintf("# %s\n\n_%s_\n\n%s\n", title, excerpt(art), art.Body)
		if _, err := entry.Write([]byte(md)); err != nil {
			return nil, fmt.Errorf("export: write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("export: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// FeaturedImage picks a pool image deterministically from the title.
func (f *Formatter) FeaturedImage(title string) string {
	if len(f.featuredImages) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(title))
	return f.featuredImages[int(h.Sum32())%len(f.featuredImages)]
}

// SynthesizeTitle prefers the model's headline and otherwise builds a
// title from the query context. Internal batch artifacts (numeric "#N"
// suffixes from older exports) never reach the published title.
func SynthesizeTitle(modelTitle, query, keyword string) string {
	if title := strings.TrimSpace(modelTitle); title != "" {
		return title
	}
	query = strings.TrimSpace(query)
	keyword = strings.TrimSpace(keyword)
	switch {
	case keyword != "" && query != "" && !strings.EqualFold(keyword, query):
		return fmt.Sprintf("Selección de ofertas en %s: %s", keyword, query)
	case query != "":
		return fmt.Sprintf("Selección de ofertas: %s", query)
	case keyword != "":
		return fmt.Sprintf("Selección de ofertas: %s", keyword)
	default:
		return "Selección de ofertas destacadas"
	}
}

func excerpt(art article.Article) string {
	if sub := strings.TrimSpace(art.Subtitle); sub != "" {
		return sub
	}
	return strings.TrimSpace(art.ModelSubtitle)
}
