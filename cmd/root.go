package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobatlas"
)

type Config struct {
	Sources   map[string]*SourceConfig `mapstructure:"sources"`
	Search    *SearchConfig            `mapstructure:"search"`
	Cache     *CacheConfig             `mapstructure:"cache"`
	Health    *HealthConfig            `mapstructure:"health"`
	Matcher   *MatcherConfig           `mapstructure:"matcher"`
	ProxyURL  string                   `mapstructure:"proxy-url"`
	UserAgent string                   `mapstructure:"user-agent"`
}

type SourceConfig struct {
	BaseURL     string        `mapstructure:"base-url"`
	APIKey      string        `mapstructure:"api-key"`
	APIKeyFile  string        `mapstructure:"api-key-file"`
	RateCeiling int           `mapstructure:"rate-ceiling"`
	RateWindow  time.Duration `mapstructure:"rate-window"`
}

type SearchConfig struct {
	Sources       []string      `mapstructure:"sources"`
	Limit         int           `mapstructure:"limit"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Sequential    bool          `mapstructure:"sequential"`
	AllowFallback bool          `mapstructure:"allow-fallback"`
}

type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

type HealthConfig struct {
	FailureThreshold int           `mapstructure:"failure-threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	ProbeInterval    time.Duration `mapstructure:"probe-interval"`
}

type MatcherConfig struct {
	MinimumScore float64 `mapstructure:"minimum-score"`
	ProfileFile  string  `mapstructure:"profile-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobatlas aggregates job postings from several boards into one deduplicated, ranked list",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobatlas.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// Every setting has a built-in default, so a missing default config
	// file is fine. An explicitly passed file must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}
