// Command anker is the entry point for the Anker CLI. It wires the
// configured adapters into the core services and hands control to the
// command tree.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/veridian-labs/anker/internal/adapters/driven/config/file"
	"github.com/veridian-labs/anker/internal/adapters/driven/embedding/ollama"
	"github.com/veridian-labs/anker/internal/adapters/driven/embedding/openai"
	"github.com/veridian-labs/anker/internal/adapters/driven/index/dense"
	"github.com/veridian-labs/anker/internal/adapters/driven/index/qdrantvec"
	"github.com/veridian-labs/anker/internal/adapters/driven/index/sparse"
	"github.com/veridian-labs/anker/internal/adapters/driven/rerank/cohere"
	summarizer "github.com/veridian-labs/anker/internal/adapters/driven/summarizer/ollama"
	"github.com/veridian-labs/anker/internal/adapters/driven/storage/sqlite"
	"github.com/veridian-labs/anker/internal/adapters/driving/cli"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
	"github.com/veridian-labs/anker/internal/core/services"
	"github.com/veridian-labs/anker/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := file.NewConfigStore(os.Getenv("ANKER_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settings := file.LoadSettings(cfg)

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	parentStore := store.ParentStore()
	memoryStore := store.MemoryStore()

	embeddingService := buildEmbedding(cfg)

	vectorIndex, rebuildDense, err := buildVectorIndex(ctx, cfg, embeddingService)
	if err != nil {
		return err
	}
	sparseIndex := sparse.New()

	// In-process indexes are empty on startup; replay the store into them.
	if err := rebuildIndexes(ctx, parentStore, vectorIndex, sparseIndex, rebuildDense); err != nil {
		return fmt.Errorf("rebuilding indexes: %w", err)
	}

	retriever := services.NewRetrieverService(parentStore, vectorIndex, sparseIndex, embeddingService, settings)
	reranker := services.NewRerankerService(buildRerank(cfg), settings)
	assembler := services.NewAssemblerService(settings)
	memory := services.NewMemoryService(memoryStore, buildSummarizer(cfg), settings)
	assistant := services.NewAssistantService(retriever, reranker, assembler, memory, settings)
	indexer := services.NewIndexerService(parentStore, vectorIndex, sparseIndex, embeddingService, settings)

	defer memory.Wait()

	cli.SetServices(assistant, indexer)
	cli.SetVersion(version)
	return cli.Execute()
}

// buildEmbedding constructs the configured embedding service, or nil
// when none is configured. Without one the dense leg stays disabled and
// retrieval runs keyword-only.
func buildEmbedding(cfg driven.ConfigStore) driven.EmbeddingService {
	switch cfg.GetString("embedding.provider") {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.GetString("embedding.api_key"),
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
		if err != nil {
			logger.Warn("embedding disabled: %v", err)
			return nil
		}
		return svc
	}
	return nil
}

// buildVectorIndex constructs the dense index: the in-process index by
// default, Qdrant when configured. Reports whether the index needs a
// rebuild from the store on startup.
func buildVectorIndex(ctx context.Context, cfg driven.ConfigStore, embedding driven.EmbeddingService) (driven.VectorIndex, bool, error) {
	if cfg.GetString("vector.provider") != "qdrant" {
		return dense.New(), true, nil
	}

	qcfg := qdrantvec.DefaultConfig()
	if host := cfg.GetString("vector.host"); host != "" {
		qcfg.Host = host
	}
	if port := cfg.GetInt("vector.port"); port > 0 {
		qcfg.Port = port
	}
	if key := cfg.GetString("vector.api_key"); key != "" {
		qcfg.APIKey = key
	}
	if coll := cfg.GetString("vector.collection"); coll != "" {
		qcfg.Collection = coll
	}
	if embedding != nil {
		qcfg.Dimensions = embedding.Dimensions()
	}

	idx, err := qdrantvec.New(ctx, qcfg)
	if err != nil {
		return nil, false, fmt.Errorf("connecting to qdrant: %w", err)
	}
	// Qdrant persists across restarts, no replay needed.
	return idx, false, nil
}

// buildRerank constructs the rerank service when an API key is
// configured. Without one the rerank pass degrades to fusion order.
func buildRerank(cfg driven.ConfigStore) driven.RerankService {
	apiKey := cfg.GetString("rerank.api_key")
	if apiKey == "" {
		return nil
	}
	svc, err := cohere.NewRerankService(cohere.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("rerank.base_url"),
		Model:   cfg.GetString("rerank.model"),
	})
	if err != nil {
		logger.Warn("reranking disabled: %v", err)
		return nil
	}
	return svc
}

// buildSummarizer constructs the consolidation summarizer. Without one,
// threshold crossings fail softly and the thread keeps growing.
func buildSummarizer(cfg driven.ConfigStore) driven.SummarizerService {
	if cfg.GetBool("summarizer.disabled") {
		return nil
	}
	return summarizer.NewSummarizerService(summarizer.Config{
		BaseURL: cfg.GetString("summarizer.base_url"),
		Model:   cfg.GetString("summarizer.model"),
	})
}

// rebuildIndexes replays persisted chunks into the in-process indexes.
func rebuildIndexes(
	ctx context.Context,
	parentStore driven.ParentStore,
	vectorIndex driven.VectorIndex,
	sparseIndex driven.SparseIndex,
	rebuildDense bool,
) error {
	docs, err := parentStore.ListDocuments(ctx)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		parents, err := parentStore.ListParents(ctx, doc.ID)
		if err != nil {
			return err
		}
		for _, parent := range parents {
			if err := sparseIndex.Index(ctx, parent); err != nil {
				return err
			}
			if !rebuildDense {
				continue
			}

			children, err := parentStore.ListChildren(ctx, parent.ID)
			if err != nil {
				return err
			}
			entries := make([]driven.VectorEntry, 0, len(children))
			for _, child := range children {
				if len(child.Embedding) == 0 {
					continue
				}
				entries = append(entries, driven.VectorEntry{
					ChildID:    child.ID,
					ParentID:   child.ParentID,
					DocumentID: doc.ID,
					Embedding:  child.Embedding,
				})
			}
			if len(entries) > 0 {
				if err := vectorIndex.Upsert(ctx, entries); err != nil {
					return err
				}
			}
		}
	}

	if len(docs) > 0 {
		logger.Debug("Rebuilt indexes for %d documents", len(docs))
	}
	return nil
}
