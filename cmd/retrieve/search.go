package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arete-go/retrieval/diversity"
	"github.com/arete-go/retrieval/index"
	"github.com/arete-go/retrieval/llm"
	"github.com/arete-go/retrieval/orchestrator"
	"github.com/arete-go/retrieval/rerank"
	"github.com/arete-go/retrieval/retriever"
	"github.com/arete-go/retrieval/scoring"
	"github.com/arete-go/retrieval/vectorstore"
)

func newSearchCmd(dataDir *string) *cobra.Command {
	var (
		method    string
		limit     int
		rerankOn  bool
		diversify bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the local passage collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), searchParams{
				dataDir:   *dataDir,
				query:     args[0],
				method:    method,
				limit:     limit,
				rerank:    rerankOn,
				diversify: diversify,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", "hybrid", "retrieval method: hybrid|dense|sparse|graph|graph_enhanced_hybrid")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().BoolVar(&rerankOn, "rerank", false, "rerank results with the cross-encoder/LLM reranker")
	cmd.Flags().BoolVar(&diversify, "diversify", false, "diversify results before returning them")

	return cmd
}

type searchParams struct {
	dataDir   string
	query     string
	method    string
	limit     int
	rerank    bool
	diversify bool
}

func runSearch(ctx context.Context, p searchParams) error {
	passages, err := loadPassages(p.dataDir)
	if err != nil {
		return err
	}
	if len(passages) == 0 {
		fmt.Println("no passages indexed; run `retrieve index add <file>` first")
		return nil
	}

	idx := index.NewFromPassages(passages)
	bm25 := scoring.NewBM25Scorer(idx)

	store, err := vectorstore.NewChromemStore(chromemPath(p.dataDir), "passages")
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}

	embedder := newEmbedder()
	dense := retriever.NewDenseRetriever(store, embedder)

	opts := []orchestrator.Option{orchestrator.WithSparse(bm25)}
	if p.rerank {
		var model llm.LLM
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			model = llm.NewOpenAILLM("", "", apiKey)
		}
		opts = append(opts, orchestrator.WithReranker(rerank.New(rerank.DefaultConfig(), rerank.WithLLM(model))))
	}
	if p.diversify {
		opts = append(opts, orchestrator.WithDiversity(diversity.New(diversity.DefaultConfig())))
	}

	orch := orchestrator.New(dense, opts...)

	results, err := orch.Search(ctx, orchestrator.SearchRequest{
		Query:     p.query,
		Method:    orchestrator.Method(p.method),
		Limit:     p.limit,
		Rerank:    p.rerank,
		Diversify: p.diversify,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%d. [%.4f] %s  %s\n", r.RankingPosition, r.FinalScore(), r.Passage.ID, truncateText(r.Passage.Text, 120))
	}
	return nil
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
