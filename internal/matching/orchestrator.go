// Package matching reacts to profile and job changes by scheduling
// asynchronous re-scoring work. Triggers enqueue and return immediately; the
// request that caused them never waits on, or learns about, matching results.
package matching

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/aiservice"
	"github.com/talenthub/ai-gateway/internal/filtering"
	"github.com/talenthub/ai-gateway/internal/logger"
	"github.com/talenthub/ai-gateway/internal/queue"
	"github.com/talenthub/ai-gateway/internal/store"
)

// Queue keys. Work within one trigger kind is serialized in enqueue order;
// graduate-triggered and job-triggered runs may interleave, which is safe
// because match writes are atomic conditional upserts.
const (
	graduateQueueKey = "matching.graduate"
	jobQueueKey      = "matching.job"
)

// Gateway is the slice of the AI gateway the orchestrator consumes.
type Gateway interface {
	FindMatches(ctx context.Context, graduateEmbedding []float64, jobs []aiservice.JobEmbedding, metadata *aiservice.GraduateMetadata, opts *aiservice.MatchOptions) ([]aiservice.MatchItem, error)
	FindMatchesBatch(ctx context.Context, graduates []aiservice.GraduatePayload, jobs []aiservice.JobEmbedding, opts *aiservice.MatchOptions) ([]aiservice.BatchMatchResult, error)
}

// GraduateStore reads graduate state and writes back assessment outcomes.
type GraduateStore interface {
	Get(id string) (*store.Graduate, error)
	ListWithEmbeddings(limit int) ([]*store.Graduate, error)
	RecordBelowThreshold(id string, score float64) error
}

// JobStore reads job postings.
type JobStore interface {
	Get(id string) (*store.Job, error)
	ListActiveWithEmbeddings(limit int) ([]*store.Job, error)
}

// MatchStore writes scored pairs.
type MatchStore interface {
	Upsert(graduateID, jobID string, score float64) error
}

// Config bounds a matching run.
type Config struct {
	// MaxJobs caps candidate postings per graduate-triggered run.
	MaxJobs int
	// MaxGraduates caps candidates per job-triggered run.
	MaxGraduates int
	// BatchSize chunks job-triggered runs into batch match calls.
	BatchSize int
	// MinScore (0-1 scale) is the qualification threshold. A graduate whose
	// best score falls under it gets no match records and must retake the
	// assessment.
	MinScore float64
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.MaxJobs <= 0 {
		return errors.New("matching: max jobs must be positive")
	}
	if c.MaxGraduates <= 0 {
		return errors.New("matching: max graduates must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("matching: batch size must be positive")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return errors.New("matching: min score must be within [0, 1]")
	}
	return nil
}

// Orchestrator wires the stores, the gateway and the background queue.
type Orchestrator struct {
	cfg       Config
	gateway   Gateway
	graduates GraduateStore
	jobs      JobStore
	matches   MatchStore
	tasks     *queue.Queue
	logger    *zap.Logger

	timeNow func() time.Time
}

// New creates an Orchestrator.
func New(cfg Config, gw Gateway, graduates GraduateStore, jobs JobStore, matches MatchStore, tasks *queue.Queue, logger *zap.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		cfg:       cfg,
		gateway:   gw,
		graduates: graduates,
		jobs:      jobs,
		matches:   matches,
		tasks:     tasks,
		logger:    logger,
		timeNow:   time.Now,
	}, nil
}

// QueueGraduateMatching schedules re-scoring for a graduate after an
// assessment submission produced a fresh embedding. Fire-and-forget.
func (o *Orchestrator) QueueGraduateMatching(graduateID string) {
	o.tasks.Enqueue(graduateQueueKey, "graduate-matching", func(ctx context.Context) error {
		return o.matchGraduate(ctx, graduateID)
	})
}

// QueueJobMatching schedules re-scoring against all graduates after a job
// posting becomes active. Fire-and-forget.
func (o *Orchestrator) QueueJobMatching(jobID string) {
	o.tasks.Enqueue(jobQueueKey, "job-matching", func(ctx context.Context) error {
		return o.matchJob(ctx, jobID)
	})
}

// resultFilters is the cleanup pipeline applied to every match result list
// before persistence.
func (o *Orchestrator) resultFilters() []filtering.Filter {
	return []filtering.Filter{
		filtering.NewSanitize(),
		filtering.NewDedupe(),
		filtering.NewTop(o.cfg.MaxJobs),
	}
}

func (o *Orchestrator) matchGraduate(ctx context.Context, graduateID string) error {
	log := o.logger.With(logger.MatchFields(graduateID, "")...)

	grad, err := o.graduates.Get(graduateID)
	if err != nil {
		// Assessment not scored yet, or the graduate vanished. Nothing to do.
		log.Debug("skipping graduate matching", zap.Error(err))
		return nil
	}
	if len(grad.Embedding) == 0 {
		log.Debug("skipping graduate matching", zap.String("reason", "no stored embedding"))
		return nil
	}

	postings, err := o.jobs.ListActiveWithEmbeddings(o.cfg.MaxJobs)
	if err != nil {
		return errors.Wrap(err, "load candidate jobs")
	}
	if len(postings) == 0 {
		log.Debug("skipping graduate matching", zap.String("reason", "no active jobs with embeddings"))
		return nil
	}

	candidates := make([]aiservice.JobEmbedding, 0, len(postings))
	for _, posting := range postings {
		candidates = append(candidates, aiservice.JobEmbedding{
			ID:        posting.ID,
			Embedding: posting.Embedding,
			Metadata:  jobMetadata(posting),
		})
	}

	items, err := o.gateway.FindMatches(ctx, grad.Embedding, candidates, graduateMetadata(grad, o.timeNow()), nil)
	if err != nil {
		return errors.Wrap(err, "score graduate against jobs")
	}

	items, err = filtering.Run(log, o.resultFilters(), items)
	if err != nil {
		return errors.Wrap(err, "filter match results")
	}

	// No usable score counts as a best score of zero: a graduate whose every
	// item came back absent or invalid must requalify, not silently stay
	// unmatched.
	var top float64
	for _, item := range items {
		if item.Score > top {
			top = item.Score
		}
	}

	if top < o.cfg.MinScore {
		// The graduate must requalify before being exposed to companies, so
		// no match records are written and the next assessment request gets a
		// fresh question set.
		if err := o.graduates.RecordBelowThreshold(graduateID, top); err != nil {
			return errors.Wrap(err, "record below-threshold outcome")
		}

		log.Info("graduate below matching threshold",
			zap.Float64("top_score", top),
			zap.Float64("min_score", o.cfg.MinScore),
		)
		return nil
	}

	written := 0
	for _, item := range items {
		if err := o.matches.Upsert(graduateID, item.ID, item.Score*100); err != nil {
			log.Error("match upsert failed",
				zap.String(logger.FieldJob, item.ID),
				zap.Error(err),
			)
			continue
		}
		written++
	}

	log.Info("graduate matching completed",
		zap.Int("candidates", len(items)),
		zap.Int("written", written),
		zap.Float64("top_score", top),
	)
	return nil
}

func (o *Orchestrator) matchJob(ctx context.Context, jobID string) error {
	log := o.logger.With(logger.MatchFields("", jobID)...)

	posting, err := o.jobs.Get(jobID)
	if err != nil {
		log.Debug("skipping job matching", zap.Error(err))
		return nil
	}
	if !posting.Active {
		log.Debug("skipping job matching", zap.String("reason", "job inactive"))
		return nil
	}
	if len(posting.Embedding) == 0 {
		log.Debug("skipping job matching", zap.String("reason", "no stored embedding"))
		return nil
	}

	grads, err := o.graduates.ListWithEmbeddings(o.cfg.MaxGraduates)
	if err != nil {
		return errors.Wrap(err, "load candidate graduates")
	}
	if len(grads) == 0 {
		log.Debug("skipping job matching", zap.String("reason", "no graduates with embeddings"))
		return nil
	}

	target := []aiservice.JobEmbedding{{
		ID:        posting.ID,
		Embedding: posting.Embedding,
		Metadata:  jobMetadata(posting),
	}}

	// Qualification filtering happens server-side: graduates under the
	// threshold simply come back with no matches for this posting.
	minScore := o.cfg.MinScore
	opts := &aiservice.MatchOptions{MinScore: &minScore}

	now := o.timeNow()
	written := 0

	for start := 0; start < len(grads); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(grads) {
			end = len(grads)
		}
		chunk := grads[start:end]

		payloads := make([]aiservice.GraduatePayload, 0, len(chunk))
		for _, grad := range chunk {
			payloads = append(payloads, aiservice.GraduatePayload{
				ID:        grad.ID,
				Embedding: grad.Embedding,
				Metadata:  graduateMetadata(grad, now),
			})
		}

		results, err := o.gateway.FindMatchesBatch(ctx, payloads, target, opts)
		if err != nil {
			// One failed batch must not prevent the remaining graduates from
			// being scored.
			typed, _ := aiservice.AsError(err)
			fields := []zap.Field{
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(chunk)),
				zap.Error(err),
			}
			if typed != nil {
				fields = append(fields, zap.Int("status", typed.Status))
			}
			log.Error("batch match failed", fields...)
			continue
		}

		for _, result := range results {
			// One job target, so deduplication and capping do not apply here.
			matches, err := filtering.Run(log, []filtering.Filter{filtering.NewSanitize()}, result.Matches)
			if err != nil {
				return errors.Wrap(err, "filter match results")
			}

			for _, item := range matches {
				if err := o.matches.Upsert(result.GraduateID, jobID, item.Score*100); err != nil {
					log.Error("match upsert failed",
						zap.String(logger.FieldGraduate, result.GraduateID),
						zap.Error(err),
					)
					continue
				}
				written++
			}
		}
	}

	log.Info("job matching completed",
		zap.Int("graduates", len(grads)),
		zap.Int("written", written),
	)
	return nil
}
