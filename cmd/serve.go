package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobatlas/jobatlas/internal/logger"
	"github.com/jobatlas/jobatlas/internal/orchestrator"
	"github.com/jobatlas/jobatlas/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const probeTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "address for the HTTP API to listen on")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobatlas server", zap.String("version", version))

	orch, err := buildOrchestrator(config, logger)
	if err != nil {
		logger.Fatal("building the orchestrator", zap.Error(err))
	}
	defer orch.Close()

	interval := orchestrator.DefaultProbeInterval
	if config.Health != nil && config.Health.ProbeInterval > 0 {
		interval = config.Health.ProbeInterval
	}

	go orch.Health().Run(ctx, orch.Adapters(), interval, probeTimeout)

	srv := server.New(orch, buildMatcher(config, logger), func() []orchestrator.Health {
		return orch.Health().Snapshot(adapterNames(orch))
	}, logger)

	addr := cmd.Flag("listen").Value.String()
	logger.Info("listening", zap.String("address", addr))

	if err := srv.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func adapterNames(orch *orchestrator.Orchestrator) []string {
	names := make([]string, 0, len(orch.Adapters()))
	for _, adapter := range orch.Adapters() {
		names = append(names, adapter.Name())
	}
	return names
}
