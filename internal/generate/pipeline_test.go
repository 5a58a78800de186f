package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rotativa/internal/catalog"
)

type fakeSearcher struct {
	products []catalog.Product
	err      error
	calls    int
}

func (f *fakeSearcher) Search(_ context.Context, query, category string, target int) ([]catalog.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if target < len(f.products) {
		return f.products[:target], nil
	}
	return f.products, nil
}

type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	fn      func(userPrompt string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, userPrompt)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(userPrompt)
	}
	return fragmentFor(userPrompt), nil
}

// fragmentFor builds a minimal tagged completion echoing the first
// product named in the prompt, so assembled bodies are traceable back
// to their group.
func fragmentFor(userPrompt string) string {
	first := ""
	for _, line := range strings.Split(userPrompt, "\n") {
		if strings.HasPrefix(line, "1. ") {
			first = strings.TrimPrefix(line, "1. ")
			break
		}
	}
	return fmt.Sprintf(
		`<titular>Análisis: %s</titular><intro><p>Intro sobre %s.</p></intro>`+
			`<producto id="1"><p>Texto sobre %s.</p></producto><cierre><p>Cierre.</p></cierre>`,
		first, first, first)
}

func discountedProducts(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{
			Title:        fmt.Sprintf("Auriculares Modelo %d", i+1),
			Price:        "49,99 €",
			Discounted:   true,
			ProductURL:   fmt.Sprintf("https://www.amazon.es/dp/B0%03d", i),
			AffiliateURL: fmt.Sprintf("https://www.amazon.es/dp/B0%03d?tag=rotativa-21", i),
		}
	}
	return out
}

func TestRunBatch(t *testing.T) {
	searcher := &fakeSearcher{products: discountedProducts(6)}
	completer := &fakeCompleter{}
	pipeline := NewPipeline(searcher, completer)

	articles, err := pipeline.Run(context.Background(), Request{
		Query:           "auriculares",
		ArticleCount:    2,
		ItemsPerArticle: 3,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if len(completer.prompts) != 2 {
		t.Fatalf("made %d model calls, want 2", len(completer.prompts))
	}

	// Partition is contiguous, so article order follows product order.
	if !strings.Contains(articles[0].Body, "Auriculares Modelo 1") {
		t.Errorf("first article body does not cover the first group:\n%s", articles[0].Body)
	}
	if !strings.Contains(articles[1].Body, "Auriculares Modelo 4") {
		t.Errorf("second article body does not cover the second group:\n%s", articles[1].Body)
	}
	if articles[0].Title == "" {
		t.Error("article title missing")
	}
	for _, prompt := range completer.prompts {
		if strings.Contains(prompt, "Palabra clave principal") {
			t.Errorf("prompt carries an empty keyword line:\n%s", prompt)
		}
		if !strings.Contains(prompt, "auriculares") {
			t.Errorf("prompt missing the query:\n%s", prompt)
		}
	}
}

func TestRunEmptyPoolIsNotAnError(t *testing.T) {
	// Nothing discounted and no seasonal query, so filtering empties
	// the pool.
	searcher := &fakeSearcher{products: []catalog.Product{
		{Title: "Producto normal", Price: "20,00 €"},
	}}
	completer := &fakeCompleter{}
	pipeline := NewPipeline(searcher, completer)

	articles, err := pipeline.Run(context.Background(), Request{Query: "auriculares", ArticleCount: 2, ItemsPerArticle: 2})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Fatalf("got %v, want empty non-nil article list", articles)
	}
	if len(completer.prompts) != 0 {
		t.Errorf("model called %d times for an empty pool", len(completer.prompts))
	}
}

func TestRunSearchFailureFailsBatch(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("search exploded")}
	pipeline := NewPipeline(searcher, &fakeCompleter{})

	_, err := pipeline.Run(context.Background(), Request{Query: "auriculares", ArticleCount: 1, ItemsPerArticle: 2})
	if err == nil || !strings.Contains(err.Error(), "search exploded") {
		t.Fatalf("err = %v, want propagated search failure", err)
	}
}

func TestRunCompletionFailureFailsBatchWithoutPartialResult(t *testing.T) {
	searcher := &fakeSearcher{products: discountedProducts(4)}
	calls := 0
	completer := &fakeCompleter{fn: func(userPrompt string) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("model unavailable")
		}
		return fragmentFor(userPrompt), nil
	}}
	pipeline := NewPipeline(searcher, completer)

	articles, err := pipeline.Run(context.Background(), Request{Query: "auriculares", ArticleCount: 2, ItemsPerArticle: 2})
	if err == nil {
		t.Fatal("expected batch failure when one group's completion fails")
	}
	if articles != nil {
		t.Errorf("got partial result %v, want none", articles)
	}
}

func TestRunConcurrentOrderMatchesPartitionOrder(t *testing.T) {
	searcher := &fakeSearcher{products: discountedProducts(6)}
	var once sync.Once
	completer := &fakeCompleter{fn: func(userPrompt string) (string, error) {
		// Delay the first group so it finishes last.
		if strings.Contains(userPrompt, "Auriculares Modelo 1") {
			once.Do(func() { time.Sleep(30 * time.Millisecond) })
		}
		return fragmentFor(userPrompt), nil
	}}
	pipeline := NewPipeline(searcher, completer, WithConcurrency(3))

	articles, err := pipeline.Run(context.Background(), Request{Query: "auriculares", ArticleCount: 3, ItemsPerArticle: 2})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("got %d articles, want 3", len(articles))
	}
	for i, want := range []string{"Auriculares Modelo 1", "Auriculares Modelo 3", "Auriculares Modelo 5"} {
		if !strings.Contains(articles[i].Body, want) {
			t.Errorf("article %d does not open group starting at %q", i, want)
		}
	}
}

func TestRunValidatesQuery(t *testing.T) {
	pipeline := NewPipeline(&fakeSearcher{}, &fakeCompleter{})
	if _, err := pipeline.Run(context.Background(), Request{Query: "  "}); err == nil {
		t.Fatal("expected validation error for empty query")
	}
}

func TestRequestNormalization(t *testing.T) {
	req := Request{Query: "q", ArticleCount: 0, ItemsPerArticle: 99}.normalized()
	if req.ArticleCount != 1 {
		t.Errorf("ArticleCount = %d, want 1", req.ArticleCount)
	}
	if req.ItemsPerArticle != maxItemsPerArticle {
		t.Errorf("ItemsPerArticle = %d, want %d", req.ItemsPerArticle, maxItemsPerArticle)
	}
}
