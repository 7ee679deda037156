package cmd

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/aiservice"
	"github.com/talenthub/ai-gateway/internal/gateway"
	"github.com/talenthub/ai-gateway/internal/logger"
	"github.com/talenthub/ai-gateway/internal/matching"
	"github.com/talenthub/ai-gateway/internal/queue"
	"github.com/talenthub/ai-gateway/internal/scheduler"
	"github.com/talenthub/ai-gateway/internal/secrets"
	"github.com/talenthub/ai-gateway/internal/store"
)

// application holds every wired component a command may need. Commands call
// buildApp, do their work and defer Close.
type application struct {
	Logger       *zap.Logger
	Client       *aiservice.Client
	Gateway      *gateway.Gateway
	Graduates    *store.Graduates
	Jobs         *store.Jobs
	Matches      *store.Matches
	Orchestrator *matching.Orchestrator

	tasks *queue.Queue
	db    *sql.DB
}

func buildApp() (*application, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, errors.Wrap(err, "create logger")
	}

	config, err := getConfig()
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if config.Service == nil || config.Service.Retry == nil ||
		config.Scheduler == nil || config.Cache == nil || config.Matching == nil {
		return nil, errors.New("incomplete configuration")
	}

	// The AI service may run without authentication in development, so a
	// missing token is only fatal when a token file was pointed at.
	var token string
	if config.TokenFile != "" {
		token, err = secrets.Load(secrets.Source{Name: "ai service token", File: config.TokenFile})
		if err != nil {
			return nil, err
		}
	}

	gate, err := scheduler.New(scheduler.Config{
		MaxConcurrent:       config.Scheduler.MaxConcurrent,
		RequestsPerInterval: config.Scheduler.RequestsPerInterval,
		Interval:            config.Scheduler.Interval,
	})
	if err != nil {
		return nil, err
	}

	client, err := aiservice.New(aiservice.Config{
		BaseURL: config.Service.URL,
		Token:   token,
		Timeout: config.Service.Timeout,
		Retry: aiservice.RetryConfig{
			MaxAttempts:    config.Service.Retry.MaxAttempts,
			InitialBackoff: config.Service.Retry.InitialBackoff,
			Multiplier:     config.Service.Retry.Multiplier,
			MaxBackoff:     config.Service.Retry.MaxBackoff,
		},
	}, gate, aiservice.NewCollector(config.Metrics), log)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(client, gateway.Config{
		CacheTTL:        config.Cache.TTL,
		CacheMaxEntries: config.Cache.MaxEntries,
	}, log)

	db, err := store.Open(config.DBPath)
	if err != nil {
		return nil, err
	}

	graduates := store.NewGraduates(db)
	jobs := store.NewJobs(db)
	matches := store.NewMatches(db)

	tasks := queue.New(log)

	orchestrator, err := matching.New(matching.Config{
		MaxJobs:      config.Matching.MaxJobs,
		MaxGraduates: config.Matching.MaxGraduates,
		BatchSize:    config.Matching.BatchSize,
		MinScore:     config.Matching.MinScore,
	}, gw, graduates, jobs, matches, tasks, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &application{
		Logger:       log,
		Client:       client,
		Gateway:      gw,
		Graduates:    graduates,
		Jobs:         jobs,
		Matches:      matches,
		Orchestrator: orchestrator,
		tasks:        tasks,
		db:           db,
	}, nil
}

// Close drains queued background work, reports per-endpoint request metrics
// and releases resources.
func (a *application) Close() {
	a.tasks.Close()

	if snapshot := a.Client.Metrics().Snapshot(); len(snapshot) > 0 {
		for path, metric := range snapshot {
			a.Logger.Debug("endpoint metrics",
				zap.String(logger.FieldEndpoint, path),
				zap.Int64("total", metric.Total),
				zap.Int64("success", metric.Success),
				zap.Int64("failure", metric.Failure),
				zap.Int64("max_latency_ms", metric.MaxLatencyMs),
			)
		}
	}

	if err := a.db.Close(); err != nil {
		a.Logger.Warn("closing database", zap.Error(err))
	}

	a.Logger.Sync() //nolint: errcheck
}
