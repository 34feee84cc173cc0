package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"interviewrag/src/core/knowledgebase"
	"interviewrag/src/fsutil"
	"interviewrag/src/infrastructure/job"
	"interviewrag/src/storage/minioctrl"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <paths...>",
	Short: "Archive local documents and queue them for the worker",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)
	enqueueCmd.Flags().StringP("strategy", "s", string(knowledgebase.StrategyRecursive), "chunking strategy: recursive, semantic or both")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := watermill.NewStdLogger(false, false)

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

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	minioService, err := newMinio(ctx)
	if err != nil {
		return err
	}
	if minioService == nil {
		return fmt.Errorf("minio.endpoint is required")
	}

	publisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(viper.GetString("amqp.url")), logger)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer publisher.Close()

	jobService := job.NewJobService(publisher, job.NewPostgresJobRepository(db), logger)
	bucket := viper.GetString("minio.upload_bucket")

	for _, path := range paths {
		data, err := files.ReadFile(path)
		if err != nil {
			return err
		}

		filename := filepath.Base(path)
		contentType := knowledgebase.DetectContentType(filename, "")
		object := minioctrl.ObjectName(filename)
		if err := minioService.PutObject(ctx, bucket, object, contentType, data); err != nil {
			return err
		}

		payload, err := json.Marshal(job.IngestionPayload{
			Bucket:      bucket,
			Object:      object,
			Filename:    filename,
			ContentType: contentType,
			Strategy:    string(strategy),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}

		j, err := jobService.EnqueueJob(ctx, job.TaskTypeIngestion, payload)
		if err != nil {
			return fmt.Errorf("failed to enqueue job: %w", err)
		}
		fmt.Printf("Enqueued %s as job %d\n", path, j.ID)
	}

	return nil
}
