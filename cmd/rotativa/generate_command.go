package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rotativa/internal/article"
	"rotativa/internal/export"
	"rotativa/internal/generate"
	"rotativa/internal/logging"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var category string
	var articleCount int
	var itemsPerArticle int
	var keyword string
	var secondary []string
	var writeZip bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "generate <busqueda>",
		Short: "Generate affiliate articles for a product search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "rotativa.log")},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			pipeline, _, formatter, err := buildPipeline(cfg, logger, nil)
			if err != nil {
				return err
			}

			req := generate.Request{
				Query:             strings.Join(args, " "),
				Category:          category,
				ArticleCount:      articleCount,
				ItemsPerArticle:   itemsPerArticle,
				Keyword:           keyword,
				SecondaryKeywords: secondary,
			}
			if req.Category == "" {
				req.Category = cfg.Content.DefaultCategory
			}

			out := cmd.OutOrStdout()
			printStatus(out, statusInfo, fmt.Sprintf("generating %d article(s) for %q", articleCount, req.Query))

			articles, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				printStatus(out, statusWarn, "no discounted products matched the search; nothing generated")
				return nil
			}

			fmt.Fprintln(out, renderArticleTable(articles, req))

			target := strings.TrimSpace(outputDir)
			if target == "" {
				target = cfg.Paths.OutputDir
			}
			batch := export.Batch{Query: req.Query, Keyword: req.Keyword, Articles: articles}
			written, err := writeBatchFiles(formatter, batch, target, writeZip)
			if err != nil {
				return err
			}
			for _, path := range written {
				printStatus(out, statusOK, "wrote "+path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Product category hint (e.g. tecnologia, hogar)")
	cmd.Flags().IntVarP(&articleCount, "articles", "n", 1, "Number of articles to generate")
	cmd.Flags().IntVarP(&itemsPerArticle, "items", "i", 3, "Products per article")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Primary keyword products must match")
	cmd.Flags().StringSliceVar(&secondary, "secondary", nil, "Secondary keywords to weave into the copy")
	cmd.Flags().BoolVar(&writeZip, "zip", false, "Also write a zip bundle with per-article markdown")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")

	return cmd
}

func renderArticleTable(articles []article.Article, req generate.Request) string {
	rows := make([][]string, 0, len(articles))
	for i, art := range articles {
		title := export.SynthesizeTitle(art.Title, req.Query, req.Keyword)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			title,
			art.Subtitle,
			fmt.Sprintf("%d", len(strings.Fields(stripTags(art.Body)))),
		})
	}
	return renderTable([]string{"#", "Título", "Subtítulo", "Palabras"}, rows, 1, 4)
}

func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeBatchFiles persists the XML (and optionally zip) payloads under
// dir, naming them after a fresh batch identifier. It returns the paths
// written.
func writeBatchFiles(formatter *export.Formatter, batch export.Batch, dir string, includeZip bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}
	batchID := uuid.NewString()[:8]

	xmlPayload, err := formatter.XML(batch)
	if err != nil {
		return nil, fmt.Errorf("render export XML: %w", err)
	}
	xmlPath := filepath.Join(dir, fmt.Sprintf("articulos_%s.xml", batchID))
	if err := os.WriteFile(xmlPath, xmlPayload, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", xmlPath, err)
	}
	written := []string{xmlPath}

	if includeZip {
		zipPayload, err := formatter.Zip(batch)
		if err != nil {
			return nil, fmt.Errorf("render export zip: %w", err)
		}
		zipPath := filepath.Join(dir, fmt.Sprintf("articulos_%s.zip", batchID))
		if err := os.WriteFile(zipPath, zipPayload, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", zipPath, err)
		}
		written = append(written, zipPath)
	}
	return written, nil
}
