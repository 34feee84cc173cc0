package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"interviewrag/src/infrastructure/job"
	"interviewrag/src/infrastructure/log"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background ingestion worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := watermill.NewStdLogger(false, false)

	amqpURL := viper.GetString("amqp.url")
	if amqpURL == "" {
		return fmt.Errorf("amqp.url is required")
	}

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Initialize AMQP publisher
	amqpPublisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(amqpURL), logger)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	// Initialize AMQP subscriber
	subscriberConfig := amqp.NewDurableQueueConfig(amqpURL)
	subscriberConfig.Consume.NoRequeueOnNack = true
	amqpSubscriber, err := amqp.NewSubscriber(subscriberConfig, logger)
	if err != nil {
		return err
	}
	defer amqpSubscriber.Close()

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          logger,
		}.Middleware,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	minioService, err := newMinio(ctx)
	if err != nil {
		return err
	}
	if minioService == nil {
		return fmt.Errorf("minio.endpoint is required")
	}

	oc, err := newOllama()
	if err != nil {
		return err
	}
	wsdk, err := newWeaviate()
	if err != nil {
		return err
	}
	ingestor, err := newIngestor(db, oc, wsdk, workerNodeID)
	if err != nil {
		return err
	}

	jobService := job.NewJobService(amqpPublisher, job.NewPostgresJobRepository(db), logger)
	jobService.RegisterTask(job.TaskTypeIngestion, job.NewIngestionTask(minioService, ingestor))

	router.AddNoPublisherHandler(
		"job_processor",
		job.JobsTopic,
		amqpSubscriber,
		jobService.ProcessJobMessage,
	)

	runErr := make(chan error, 1)
	go func() {
		runErr <- router.Run(ctx)
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-c:
	case err := <-runErr:
		if err != nil {
			return fmt.Errorf("router stopped: %w", err)
		}
		return nil
	}

	log.Info("Shutting down...")
	cancel()
	if err := <-runErr; err != nil {
		log.Error(err, "Router stopped with error")
	}
	log.Info("Router stopped")

	return nil
}
