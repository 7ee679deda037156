package cmd

import (
	"log"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ai-gateway"
)

type Config struct {
	Service   *ServiceConfig   `mapstructure:"service"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
	Cache     *CacheConfig     `mapstructure:"cache"`
	Matching  *MatchingConfig  `mapstructure:"matching"`
	Metrics   bool             `mapstructure:"metrics"`
	DBPath    string           `mapstructure:"db-path"`
	TokenFile string           `mapstructure:"token-file"`
}

type ServiceConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   *RetryConfig  `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max-attempts"`
	InitialBackoff time.Duration `mapstructure:"initial-backoff"`
	Multiplier     float64       `mapstructure:"multiplier"`
	MaxBackoff     time.Duration `mapstructure:"max-backoff"`
}

type SchedulerConfig struct {
	MaxConcurrent       int           `mapstructure:"max-concurrent"`
	RequestsPerInterval int           `mapstructure:"requests-per-interval"`
	Interval            time.Duration `mapstructure:"interval"`
}

type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max-entries"`
}

type MatchingConfig struct {
	BatchSize    int     `mapstructure:"batch-size"`
	MaxJobs      int     `mapstructure:"max-jobs"`
	MaxGraduates int     `mapstructure:"max-graduates"`
	MinScore     float64 `mapstructure:"min-score"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ai-gateway mediates between the talent platform and its AI matching service",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("service.url", "AI_SERVICE_URL"); err != nil {
		log.Fatalf("binding AI_SERVICE_URL environment variable: %v", err)
	}

	if err := viper.BindEnv("token-file", "AI_SERVICE_TOKEN_FILE"); err != nil {
		log.Fatalf("binding AI_SERVICE_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ai-gateway.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	viper.SetEnvPrefix("AI_GATEWAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// Everything can come from the environment, so a missing default config
	// file is fine. An unparseable one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func setDefaults() {
	viper.SetDefault("service.timeout", 30*time.Second)
	viper.SetDefault("service.retry.max-attempts", 3)
	viper.SetDefault("service.retry.initial-backoff", 500*time.Millisecond)
	viper.SetDefault("service.retry.multiplier", 2.0)
	viper.SetDefault("service.retry.max-backoff", 8*time.Second)

	viper.SetDefault("scheduler.max-concurrent", 4)
	viper.SetDefault("scheduler.requests-per-interval", 30)
	viper.SetDefault("scheduler.interval", time.Minute)

	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("cache.max-entries", 512)

	viper.SetDefault("matching.batch-size", 20)
	viper.SetDefault("matching.max-jobs", 100)
	viper.SetDefault("matching.max-graduates", 200)
	viper.SetDefault("matching.min-score", 0.4)

	viper.SetDefault("metrics", true)
	viper.SetDefault("db-path", app+".db")
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return config, err
	}

	return config, nil
}
