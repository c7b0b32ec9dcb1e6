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
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", server.DefaultAddress, "listen address")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve(cmd *cobra.Command) {
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

	logger.Info("starting the matcher server", zap.String("version", version))

	analyzer, release, err := newAnalyzer(ctx, config, true, logger)
	if err != nil {
		logger.Fatal("building the analyzer", zap.Error(err))
	}
	defer release()

	srv, err := server.New(server.Config{
		Address:         config.Server.Address,
		AllowedOrigins:  config.Server.AllowedOrigins,
		MaxUploadBytes:  config.Server.MaxUploadBytes,
		RateLimitMax:    config.Server.RateLimit.Max,
		RateLimitWindow: config.Server.RateLimit.Window,
	}, analyzer, logger)
	if err != nil {
		logger.Fatal("building the server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
