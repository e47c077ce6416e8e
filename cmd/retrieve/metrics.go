package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMetricsCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show collection size; per-query metrics reset with every invocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(*dataDir)
		},
	}
}

func runMetrics(dataDir string) error {
	passages, err := loadPassages(dataDir)
	if err != nil {
		return err
	}
	fmt.Printf("passages indexed: %d\n", len(passages))
	fmt.Println("per-query metrics (latency, cache hits, method usage) are scoped to a single orchestrator instance and do not persist across CLI invocations")
	return nil
}
