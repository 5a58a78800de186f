package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"rotativa/internal/article"
)

func testBatch() Batch {
	return Batch{
		Query:   "auriculares inalámbricos",
		Keyword: "auriculares",
		Articles: []article.Article{
			{
				Title:    "Los auriculares que marcan la temporada",
				Subtitle: "Tres modelos, tres presupuestos.",
				Body:     "<p>Cuerpo del primero.</p>",
			},
			{
				Title:    "Sonido sin cables para todos",
				Subtitle: "La gama media se pone seria.",
				Body:     "<p>Cuerpo del segundo.</p>",
			},
		},
	}
}

type decodedItem struct {
	Title         string   `xml:"post_title"`
	Excerpt       string   `xml:"post_excerpt"`
	Content       string   `xml:"post_content"`
	Status        string   `xml:"post_status"`
	Type          string   `xml:"post_type"`
	FeaturedImage string   `xml:"featured_image"`
	Categories    []string `xml:"category"`
}

type decodedDoc struct {
	Items []decodedItem `xml:"item"`
}

func TestXMLDocument(t *testing.T) {
	payload, err := NewFormatter().XML(testBatch())
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte(xml.Header)) {
		t.Error("payload missing XML declaration")
	}
	if !bytes.Contains(payload, []byte("<![CDATA[<p>Cuerpo del primero.</p>]]>")) {
		t.Error("post_content is not CDATA-wrapped")
	}

	var doc decodedDoc
	if err := xml.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("payload does not parse: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(doc.Items))
	}
	for i, item := range doc.Items {
		if item.Title == "" || item.Content == "" {
			t.Errorf("item %d has empty title or content", i)
		}
		if item.Status != "draft" {
			t.Errorf("item %d status = %q, want draft", i, item.Status)
		}
		if item.Type != "post" {
			t.Errorf("item %d type = %q, want post", i, item.Type)
		}
		if item.FeaturedImage == "" {
			t.Errorf("item %d has no featured image", i)
		}
		if len(item.Categories) != 2 {
			t.Errorf("item %d categories = %v", i, item.Categories)
		}
	}
	if doc.Items[0].Excerpt != "Tres modelos, tres presupuestos." {
		t.Errorf("excerpt = %q", doc.Items[0].Excerpt)
	}
}

func TestXMLSynthesizesMissingTitles(t *testing.T) {
	batch := testBatch()
	batch.Articles[0].Title = ""

	payload, err := NewFormatter().XML(batch)
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}
	var doc decodedDoc
	if err := xml.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("payload does not parse: %v", err)
	}
	title := doc.Items[0].Title
	if title == "" {
		t.Fatal("missing model headline must still produce a title")
	}
	if strings.Contains(title, "#") {
		t.Errorf("synthesized title %q leaks batch artifacts", title)
	}
	if !strings.Contains(title, "auriculares") {
		t.Errorf("synthesized title %q ignores the query context", title)
	}
}

func TestFeaturedImageRotation(t *testing.T) {
	f := NewFormatter(WithFeaturedImages([]string{"a.jpg", "b.jpg", "c.jpg"}))

	first := f.FeaturedImage("Un titular cualquiera")
	if first != f.FeaturedImage("Un titular cualquiera") {
		t.Error("featured image selection is not deterministic")
	}

	seen := map[string]bool{}
	for _, title := range []string{"uno", "dos", "tres", "cuatro", "cinco", "seis", "siete"} {
		seen[f.FeaturedImage(title)] = true
	}
	if len(seen) < 2 {
		t.Errorf("rotation stuck on a single image: %v", seen)
	}
}

func TestZipArchive(t *testing.T) {
	payload, err := NewFormatter().Zip(testBatch())
	if err != nil {
		t.Fatalf("Zip returned error: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("payload is not a zip archive: %v", err)
	}
	names := make(map[string]string, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", file.Name, err)
		}
		names[file.Name] = string(content)
	}

	if _, ok := names[XMLFilename]; !ok {
		t.Fatalf("archive missing %s, members: %v", XMLFilename, keys(names))
	}
	md1, ok := names["articulo_01.md"]
	if !ok {
		t.Fatalf("archive missing articulo_01.md, members: %v", keys(names))
	}
	if !strings.HasPrefix(md1, "# Los auriculares que marcan la temporada") {
		t.Errorf("markdown companion starts with %q", md1[:min(len(md1), 60)])
	}
	if !strings.Contains(md1, "<p>Cuerpo del primero.</p>") {
		t.Error("markdown companion missing the article body")
	}
	if _, ok := names["articulo_02.md"]; !ok {
		t.Error("archive missing articulo_02.md")
	}

	// The archived XML must match a standalone render byte for byte.
	standalone, err := NewFormatter().XML(testBatch())
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}
	if names[XMLFilename] != string(standalone) {
		t.Error("archived XML differs from the standalone rendering")
	}
}

func TestSynthesizeTitle(t *testing.T) {
	for _, tc := range []struct {
		model, query, keyword, want string
	}{
		{"Titular del modelo", "q", "k", "Titular del modelo"},
		{"", "patinetes eléctricos", "", "Selección de ofertas: patinetes eléctricos"},
		{"", "", "freidoras", "Selección de ofertas: freidoras"},
		{"", "", "", "Selección de ofertas destacadas"},
	} {
		if got := SynthesizeTitle(tc.model, tc.query, tc.keyword); got != tc.want {
			t.Errorf("SynthesizeTitle(%q, %q, %q) = %q, want %q", tc.model, tc.query, tc.keyword, got, tc.want)
		}
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
