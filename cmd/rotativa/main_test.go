package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rotativa/internal/article"
	"rotativa/internal/export"
	"rotativa/internal/generate"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q

[search]
api_key = "test-search-key"

[llm]
api_key = "test-llm-key"
model = "deepseek-chat"
`,
		filepath.Join(base, "out"),
		filepath.Join(base, "logs"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output %q missing %q", haystack, needle)
	}
}

func TestConfigInit(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected error when config already exists")
	}
	requireContains(t, err.Error(), "already exists")

	out, _, err = runCLI(t, "", "config", "init", "--path", target, "--overwrite")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "search.partner_tag")
	requireContains(t, out, "deepseek-chat")
	if strings.Contains(out, "test-search-key") || strings.Contains(out, "test-llm-key") {
		t.Fatalf("config show leaked a secret: %q", out)
	}
}

func TestRootRequiresValidConfig(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte("[search]\napi_key = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, path, "config", "show")
	if err == nil {
		t.Fatal("expected validation error for missing api keys")
	}
	requireContains(t, err.Error(), "api_key")
}

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "(unset)"},
		{"abc", "****"},
		{"sk-1234567890", "sk******90"},
	}
	for _, tt := range tests {
		if got := redactSecret(tt.value); got != tt.want {
			t.Errorf("redactSecret(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestRenderArticleTable(t *testing.T) {
	articles := []article.Article{
		{Title: "Chollos de aspiradoras", Subtitle: "Tres modelos rebajados", Body: "<p>uno dos tres</p>"},
		{Body: "<p>cuatro cinco</p>"},
	}
	req := generate.Request{Query: "aspiradoras", Keyword: "aspirador"}

	out := renderArticleTable(articles, req)
	requireContains(t, out, "Chollos de aspiradoras")
	requireContains(t, out, "Título")
	// the untitled article gets a synthesized title
	requireContains(t, out, "aspirador")
}

func TestStripTags(t *testing.T) {
	got := stripTags("<p>hola <strong>mundo</strong></p>")
	fields := strings.Fields(got)
	if len(fields) != 2 || fields[0] != "hola" || fields[1] != "mundo" {
		t.Fatalf("stripTags fields = %v", fields)
	}
}

func TestWriteBatchFiles(t *testing.T) {
	dir := t.TempDir()
	formatter := export.NewFormatter()
	batch := export.Batch{
		Query: "freidoras de aire",
		Articles: []article.Article{
			{Title: "Freidoras en oferta", Subtitle: "Dos modelos", Body: "<p>Texto.</p>"},
		},
	}

	written, err := writeBatchFiles(formatter, batch, dir, true)
	if err != nil {
		t.Fatalf("writeBatchFiles: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written = %v, want xml and zip", written)
	}
	if !strings.HasSuffix(written[0], ".xml") || !strings.HasSuffix(written[1], ".zip") {
		t.Fatalf("unexpected file names: %v", written)
	}
	for _, path := range written {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestRenderTableAlignment(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"alpha", "3"}, {"beta", "12"}}, 2)
	requireContains(t, out, "alpha")
	requireContains(t, out, "12")
	if out == "" {
		t.Fatal("expected rendered table")
	}
	if got := renderTable(nil, nil); got != "" {
		t.Fatalf("empty headers should render nothing, got %q", got)
	}
}
