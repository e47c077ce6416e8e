// Command retrieve is the thin CLI wiring over the retrieval core: it
// mutates a locally-persisted index and vector store and runs searches
// against them through the orchestrator (C10).
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/arete-go/retrieval/embedding"
)

func main() {
	var dataDir string

	rootCmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Hybrid sparse/dense/graph retrieval over a local passage collection",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./.retrieve", "local data directory (passages + vector store)")

	rootCmd.AddCommand(newIndexCmd(&dataDir))
	rootCmd.AddCommand(newSearchCmd(&dataDir))
	rootCmd.AddCommand(newMetricsCmd(&dataDir))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newEmbedder() *embedding.OpenAIEmbedding {
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Fatal("OPENAI_API_KEY environment variable is not set")
	}
	return embedding.NewOpenAIEmbedding("", "")
}
