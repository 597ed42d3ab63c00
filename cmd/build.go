package cmd

import (
	"fmt"
	"strings"

	"github.com/jobatlas/jobatlas/internal/matcher"
	"github.com/jobatlas/jobatlas/internal/orchestrator"
	"github.com/jobatlas/jobatlas/internal/secrets"
	"github.com/jobatlas/jobatlas/internal/source"

	"go.uber.org/zap"
)

// buildOrchestrator assembles the source adapters and the orchestrator from
// the parsed config. The returned orchestrator owns a result cache; callers
// must Close it.
func buildOrchestrator(config *Config, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	configs, err := sourceConfigs(config)
	if err != nil {
		return nil, err
	}

	var enabled []string
	if config.Search != nil {
		enabled = config.Search.Sources
	}

	adapters, err := source.Build(enabled, configs, logger)
	if err != nil {
		return nil, fmt.Errorf("building source adapters: %w", err)
	}

	cfg := orchestrator.Config{}

	if config.Search != nil {
		cfg.Timeout = config.Search.Timeout
		if config.Search.Sequential {
			cfg.Mode = orchestrator.ModeSequential
		}
	}
	if config.Cache != nil {
		cfg.CacheTTL = config.Cache.TTL
		cfg.CacheCapacity = config.Cache.Capacity
	}
	if config.Health != nil {
		cfg.FailureThreshold = config.Health.FailureThreshold
		cfg.Cooldown = config.Health.Cooldown
	}

	return orchestrator.New(cfg, adapters, logger), nil
}

// sourceConfigs merges per-source settings with the shared proxy and
// user-agent and resolves API keys. Most supported boards are public, so a
// missing key is not an error unless the config points at a key explicitly.
func sourceConfigs(config *Config) (map[string]*source.Config, error) {
	configs := make(map[string]*source.Config, len(source.Names()))

	for _, name := range source.Names() {
		cfg := &source.Config{
			ProxyURL:  config.ProxyURL,
			UserAgent: config.UserAgent,
		}

		sc := config.Sources[name]
		if sc != nil {
			cfg.BaseURL = sc.BaseURL
			cfg.RateCeiling = sc.RateCeiling
			cfg.RateWindow = sc.RateWindow
		}

		key, err := resolveAPIKey(name, sc)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key

		configs[name] = cfg
	}

	return configs, nil
}

func resolveAPIKey(name string, sc *SourceConfig) (string, error) {
	src := secrets.Source{
		Name: name + " api key",
		Env:  "JOBATLAS_" + strings.ToUpper(name) + "_API_KEY",
	}
	if sc != nil {
		src.Value = sc.APIKey
		src.File = sc.APIKeyFile
	}

	key, err := secrets.Load(src)
	if err != nil {
		if sc == nil || (sc.APIKey == "" && sc.APIKeyFile == "") {
			return "", nil
		}
		return "", err
	}

	return key, nil
}

func buildMatcher(config *Config, logger *zap.Logger) *matcher.Matcher {
	minScore := 0.0
	if config.Matcher != nil {
		minScore = config.Matcher.MinimumScore
	}

	return matcher.New(minScore, logger)
}
