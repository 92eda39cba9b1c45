package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/todoc/ai/core/embedding"
	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/format"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/internal/profile"
)

// ingestConcurrency bounds parallel embedding requests.
const ingestConcurrency = 4

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Embed guide documents into the retrieval collections",
	Long: `Each subdirectory of <dir> is a collection (mom_docs, doctor_docs,
nutrient_docs, common_docs). Markdown and text files inside are split,
embedded and stored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		embedder, err := newEmbedder(instanceProfile)
		if err != nil {
			return err
		}
		svc := retrieval.NewService(embedder, storeInstance, persona.NewStore(), nil, retrieval.Options{})
		return ingestDir(ctx, svc, args[0])
	},
}

func newEmbedder(p *profile.Profile) (*embedding.Provider, error) {
	if p.EmbeddingAPIKey == "" && p.LLMProvider != "ollama" {
		return nil, fmt.Errorf("TODOC_AI_EMBEDDING_API_KEY is required for ingest")
	}
	return embedding.NewProvider(&embedding.Config{
		BaseURL:    p.EmbeddingBaseURL,
		APIKey:     p.EmbeddingAPIKey,
		Model:      p.EmbeddingModel,
		Dimensions: p.EmbeddingDimensions,
	})
}

type ingester interface {
	Ingest(ctx context.Context, collection, source, text string) (int, error)
}

// ingestDir stores every document below root, one collection per subdirectory.
func ingestDir(ctx context.Context, svc ingester, root string) error {
	collections, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	var chunks atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)
	for _, dir := range collections {
		if !dir.IsDir() {
			continue
		}
		collection := dir.Name()
		files, err := os.ReadDir(filepath.Join(root, collection))
		if err != nil {
			return err
		}
		for _, f := range files {
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if f.IsDir() || (ext != ".md" && ext != ".txt") {
				continue
			}
			path := filepath.Join(root, collection, f.Name())
			g.Go(func() error {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				text := string(raw)
				if ext == ".md" {
					text = format.PlainText(text)
				}
				n, err := svc.Ingest(gctx, collection, f.Name(), text)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				chunks.Add(int64(n))
				slog.Info("document ingested", "collection", collection, "source", f.Name(), "chunks", n)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("ingest finished", "chunks", chunks.Load())
	return nil
}
