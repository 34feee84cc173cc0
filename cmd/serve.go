package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "interviewrag/handler/http"
	"interviewrag/src/infrastructure/job"
	"interviewrag/src/infrastructure/log"
	"interviewrag/src/storage/redisctrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat, upload and booking HTTP API",
	Long: `The serve command starts an HTTP server exposing the conversational agent,
document upload and health endpoints.`,
	RunE: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logConfig()

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := redisctrl.NewClient(viper.GetString("redis.url"))
	if err != nil {
		return err
	}
	defer rdb.Close()
	sessions := redisctrl.NewSessionStore(rdb)

	oc, err := newOllama()
	if err != nil {
		return err
	}

	generator, closeGenerator, err := newGenerator(ctx, oc)
	if err != nil {
		return err
	}
	defer closeGenerator()

	wsdk, err := newWeaviate()
	if err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(db, sessions, newSearchService(oc, wsdk), generator)
	if err != nil {
		return err
	}

	ingestor, err := newIngestor(db, oc, wsdk, serveNodeID)
	if err != nil {
		return err
	}

	health := newHealthService(sqlDB, sessions, wsdk, oc)
	opts := []httpHdlr.Option{
		httpHdlr.WithRateLimit(viper.GetFloat64("ratelimit.rps"), viper.GetInt("ratelimit.burst")),
	}

	minioService, err := newMinio(ctx)
	if err != nil {
		return err
	}
	if minioService != nil {
		opts = append(opts, httpHdlr.WithArchive(minioService, viper.GetString("minio.upload_bucket")))
		health.Register("minio", minioService)

		if amqpURL := viper.GetString("amqp.url"); amqpURL != "" {
			logger := watermill.NewStdLogger(false, false)
			publisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(amqpURL), logger)
			if err != nil {
				return fmt.Errorf("failed to create publisher: %w", err)
			}
			defer publisher.Close()

			jobService := job.NewJobService(publisher, job.NewPostgresJobRepository(db), logger)
			opts = append(opts, httpHdlr.WithJobs(jobService))
		}
	}

	handler := httpHdlr.NewHandler(orchestrator, ingestor, health, opts...)

	// Setup gin router
	r := gin.Default()
	r.Use(cors.Default())
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info("Shutting down server...")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
	return nil
}
