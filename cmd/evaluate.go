package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"interviewrag/src/core/knowledgebase"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval quality against a golden set",
	Long: `The evaluate command runs every query of a JSON lines file against the vector index
and reports recall and mean reciprocal rank. Each line looks like:

  {"query": "...", "golden": [{"filename": "faq.txt", "chunk_index": 3}]}`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("evaluate", "e", "", "Evaluation JSON lines file path")
	evaluateCmd.MarkFlagRequired("evaluate")
	evaluateCmd.Flags().IntP("top-k", "k", 5, "Number of chunks retrieved per query")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	evaluatePath, _ := cmd.Flags().GetString("evaluate")
	topK, _ := cmd.Flags().GetInt("top-k")

	evalFile, err := os.Open(evaluatePath)
	if err != nil {
		return fmt.Errorf("failed to open evaluation file: %w", err)
	}
	defer evalFile.Close()

	oc, err := newOllama()
	if err != nil {
		return err
	}
	wsdk, err := newWeaviate()
	if err != nil {
		return err
	}

	report, err := knowledgebase.Evaluate(context.Background(), newSearchService(oc, wsdk), evalFile, topK)
	if err != nil {
		return err
	}

	if report.Cases == 0 {
		fmt.Println("No evaluations were processed")
		return nil
	}
	fmt.Printf("Evaluation Results:\n")
	fmt.Printf("Total evaluations: %d (skipped %d)\n", report.Cases, report.Skipped)
	fmt.Printf("Recall@%d: %.2f%%\n", topK, report.Recall*100)
	fmt.Printf("MRR: %.3f\n", report.MRR)
	return nil
}
