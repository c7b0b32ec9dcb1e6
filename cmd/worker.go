package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/queue"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/secrets"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from RabbitMQ",
	Run: func(cmd *cobra.Command, _ []string) {
		work(cmd)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().IntP("workers", "w", queue.DefaultWorkers, "number of concurrent workers")
	viper.BindPFlag("queue.workers", workerCmd.Flags().Lookup("workers"))
}

func work(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug"), Command: cmd.Name()})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the matcher worker", zap.String("version", version))

	url, err := secrets.Load(secrets.Source{
		Name:  "amqp url",
		Value: config.Queue.URL,
		File:  config.Queue.URLFile,
		Env:   config.Queue.URLEnv,
	})
	if err != nil {
		logger.Fatal("resolving the queue url", zap.Error(err))
	}

	analyzer, release, err := newAnalyzer(ctx, config, false, logger)
	if err != nil {
		logger.Fatal("building the analyzer", zap.Error(err))
	}
	defer release()

	fetcher, err := newFetcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the document storage", zap.Error(err))
	}
	if fetcher == nil {
		logger.Warn("storage.s3.bucket is not set, jobs must carry inline text")
	}

	consumer, err := queue.NewConsumer(queue.Config{
		URL:      url,
		Queue:    config.Queue.Name,
		Exchange: config.Queue.Exchange,
		Workers:  config.Queue.Workers,
	}, queue.NewProcessor(analyzer, fetcher, logger), logger)
	if err != nil {
		logger.Fatal("building the consumer", zap.Error(err))
	}

	if err := consumer.Run(ctx); err != nil {
		logger.Error("worker stopped", zap.Error(err))
		return
	}
	logger.Info("worker stopped")
}
