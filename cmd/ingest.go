package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"interviewrag/src/core/knowledgebase"
	"interviewrag/src/fsutil"
	"interviewrag/src/infrastructure/log"
)

var supportedExtensions = []string{".txt", ".pdf"}

var ingestCmd = &cobra.Command{
	Use:   "ingest <paths...>",
	Short: "Index local .txt and .pdf files",
	Long: `The ingest command chunks, embeds and stores local documents. Directories are
walked recursively and only .txt and .pdf files are indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("strategy", "s", string(knowledgebase.StrategyRecursive), "chunking strategy: recursive, semantic or both")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rawStrategy, _ := cmd.Flags().GetString("strategy")
	strategy, err := knowledgebase.ParseStrategy(rawStrategy)
	if err != nil {
		return err
	}

	files := fsutil.NewLocalFileStore()
	paths, err := files.CollectFiles(args, supportedExtensions...)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .txt or .pdf files found")
	}
	stat, err := files.GetFileStats(paths)
	if err != nil {
		return err
	}
	log.Info("Ingesting files", "count", stat.Count, "bytes", stat.Size, "strategy", strategy)

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	oc, err := newOllama()
	if err != nil {
		return err
	}
	wsdk, err := newWeaviate()
	if err != nil {
		return err
	}
	ingestor, err := newIngestor(db, oc, wsdk, ingestNodeID)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(paths)), "ingesting")
	var failed, chunks int
	for _, path := range paths {
		bar.Describe(filepath.Base(path))

		result, err := ingestFile(ctx, files, ingestor, path, strategy)
		if err != nil {
			failed++
			log.Error(err, "Failed to ingest file", "path", path)
		} else {
			chunks += result.ChunksLength
		}
		bar.Add(1)
	}
	bar.Finish()

	fmt.Printf("\nIndexed %d of %d files, %d chunks\n", len(paths)-failed, len(paths), chunks)
	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}

func ingestFile(ctx context.Context, files fsutil.FileStore, ingestor *knowledgebase.Ingestor, path string, strategy knowledgebase.Strategy) (*knowledgebase.Result, error) {
	data, err := files.ReadFile(path)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	return ingestor.Ingest(ctx, knowledgebase.Upload{
		Filename:    filename,
		ContentType: knowledgebase.DetectContentType(filename, ""),
		Data:        data,
		Strategy:    strategy,
	})
}
