package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/vectorstore"
)

func newIndexCmd(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the local passage collection",
	}
	cmd.AddCommand(newIndexAddCmd(dataDir))
	cmd.AddCommand(newIndexRemoveCmd(dataDir))
	return cmd
}

func newIndexAddCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Embed a file's contents and add it to the local index and vector store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexAdd(cmd.Context(), *dataDir, args[0])
		},
	}
}

func newIndexRemoveCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a passage from the local index and vector store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexRemove(cmd.Context(), *dataDir, args[0])
		},
	}
}

func runIndexAdd(ctx context.Context, dataDir, file string) error {
	text, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	passages, err := loadPassages(dataDir)
	if err != nil {
		return err
	}

	id := passageIDFor(file, text)
	embedder := newEmbedder()
	vec, err := embedder.GetTextEmbedding(ctx, string(text))
	if err != nil {
		return fmt.Errorf("embed %s: %w", file, err)
	}

	passage := schema.Passage{
		ID:         id,
		DocumentID: file,
		Text:       string(text),
		WordCount:  len(strings.Fields(string(text))),
		Kind:       schema.PassageKindParagraph,
		Embedding:  vec,
	}
	passages = upsertPassage(passages, passage)
	if err := savePassages(dataDir, passages); err != nil {
		return err
	}

	store, err := vectorstore.NewChromemStore(chromemPath(dataDir), "passages")
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	if err := store.Insert(ctx, passage); err != nil {
		return fmt.Errorf("insert into vector store: %w", err)
	}

	fmt.Printf("indexed %s as passage %s\n", file, id)
	return nil
}

func runIndexRemove(ctx context.Context, dataDir, id string) error {
	passages, err := loadPassages(dataDir)
	if err != nil {
		return err
	}
	passages = removePassage(passages, id)
	if err := savePassages(dataDir, passages); err != nil {
		return err
	}

	store, err := vectorstore.NewChromemStore(chromemPath(dataDir), "passages")
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from vector store: %w", err)
	}

	fmt.Printf("removed passage %s\n", id)
	return nil
}

func passageIDFor(file string, text []byte) string {
	h := sha1.Sum(append([]byte(file+"\x00"), text...))
	return hex.EncodeToString(h[:8])
}

func upsertPassage(passages []schema.Passage, p schema.Passage) []schema.Passage {
	for i, existing := range passages {
		if existing.ID == p.ID {
			passages[i] = p
			return passages
		}
	}
	return append(passages, p)
}

func removePassage(passages []schema.Passage, id string) []schema.Passage {
	out := passages[:0]
	for _, p := range passages {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
