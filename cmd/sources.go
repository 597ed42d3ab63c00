package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/jobatlas/jobatlas/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Probe the configured job boards and print their health",
	Run: func(_ *cobra.Command, _ []string) {
		sources()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func sources() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	orch, err := buildOrchestrator(config, logger)
	if err != nil {
		logger.Fatal("building the orchestrator", zap.Error(err))
	}
	defer orch.Close()

	orch.Health().Probe(ctx, orch.Adapters(), probeTimeout)

	snapshot := orch.Health().Snapshot(adapterNames(orch))
	byName := make(map[string]int, len(snapshot))
	for i, h := range snapshot {
		byName[h.Adapter] = i
	}

	for _, adapter := range orch.Adapters() {
		status := "available"
		h := snapshot[byName[adapter.Name()]]
		if !h.Available {
			status = fmt.Sprintf("cooling down until %s", h.CooldownUntil.Format("15:04:05"))
		}

		used, ceiling := adapter.Limiter().Occupancy()
		fmt.Printf("%-12s %-32s rate budget %d/%d\n", adapter.Name(), status, used, ceiling)
	}
}
