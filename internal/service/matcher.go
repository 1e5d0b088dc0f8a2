package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/metrics"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestBuilder assembles oracle requests
type RequestBuilder interface {
	Build(ctx context.Context, found models.FoundItemReport, candidates []models.LostItemReport) *prompt.Request
	MaxCandidates() int
}

// RunRecorder persists the audit trail of match runs
type RunRecorder interface {
	SaveRun(run *models.MatchRun) error
}

type sessionIDKey struct{}

// WithSessionID tags ctx so match runs can be traced back to their session
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// Matcher runs the found-vs-lost comparison pipeline
type Matcher struct {
	builder RequestBuilder
	oracle  llm.Oracle
	runs    RunRecorder
	logger  *zap.Logger
}

// NewMatcher creates a new matcher. oracle may be nil when no provider is
// configured; every match then fails with llm.ErrOracleUnavailable.
// runs may be nil to disable the audit trail.
func NewMatcher(builder RequestBuilder, oracle llm.Oracle, runs RunRecorder, logger *zap.Logger) *Matcher {
	return &Matcher{
		builder: builder,
		oracle:  oracle,
		runs:    runs,
		logger:  logger,
	}
}

// Configured reports whether an oracle is available
func (m *Matcher) Configured() bool {
	return m.oracle != nil
}

// ModelInfo describes the configured oracle
func (m *Matcher) ModelInfo() map[string]interface{} {
	if m.oracle == nil {
		return map[string]interface{}{"provider": "none"}
	}
	return m.oracle.GetModelInfo()
}

// FindMatches asks the oracle which lost items may match found. It returns
// the validated results and the candidates that were actually sent, which
// is at most MaxCandidates of lost.
func (m *Matcher) FindMatches(ctx context.Context, found models.FoundItemReport, lost []models.LostItemReport) ([]models.MatchResult, []models.LostItemReport, error) {
	if m.oracle == nil {
		return nil, nil, fmt.Errorf("%w: set an API key for at least one provider", llm.ErrOracleUnavailable)
	}

	run := &models.MatchRun{
		ID:          uuid.NewString(),
		SessionID:   sessionIDFrom(ctx),
		FoundItemID: found.ID,
		StartedAt:   time.Now(),
	}
	provider, modelVersion := m.providerInfo()
	run.Provider = provider
	run.ModelVersion = modelVersion

	if len(lost) == 0 {
		run.Status = "no_candidates"
		m.record(run)
		return []models.MatchResult{}, nil, nil
	}

	candidates := lost
	if limit := m.builder.MaxCandidates(); len(candidates) > limit {
		candidates = candidates[:limit]
	}

	req := m.builder.Build(ctx, found, candidates)
	run.CandidateCount = len(req.CandidateIDs)
	run.DegradedImages = req.DegradedImages

	start := time.Now()
	raw, err := m.oracle.Compare(ctx, req)
	elapsed := time.Since(start)
	run.DurationMillis = elapsed.Milliseconds()
	metrics.OracleDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())

	if err != nil {
		run.Status = "failed"
		if ctx.Err() != nil {
			run.Status = "cancelled"
		}
		run.ErrorMessage = err.Error()
		m.record(run)
		metrics.OracleRequestsTotal.WithLabelValues(provider, run.Status).Inc()

		m.logger.Error("Oracle comparison failed",
			zap.String("found_item_id", found.ID),
			zap.Int("candidates", run.CandidateCount),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))

		if errors.Is(err, llm.ErrOracleUnavailable) || errors.Is(err, llm.ErrOracleCallFailure) {
			return nil, candidates, err
		}
		return nil, candidates, fmt.Errorf("%w: %v", llm.ErrOracleCallFailure, err)
	}

	results := llm.ParseMatches(raw, m.logger)

	run.MatchCount = len(results)
	run.Status = "ok"
	if len(results) == 0 {
		run.Status = "empty"
	}
	m.record(run)
	metrics.OracleRequestsTotal.WithLabelValues(provider, run.Status).Inc()

	m.logger.Info("Oracle comparison completed",
		zap.String("found_item_id", found.ID),
		zap.Int("candidates", run.CandidateCount),
		zap.Int("degraded_images", run.DegradedImages),
		zap.Int("matches", len(results)),
		zap.Duration("elapsed", elapsed))

	return results, candidates, nil
}

// Match runs FindMatches and ranks the results against the candidates
// that were sent to the oracle.
func (m *Matcher) Match(ctx context.Context, found models.FoundItemReport, lost []models.LostItemReport) ([]models.ScoredMatch, error) {
	results, candidates, err := m.FindMatches(ctx, found, lost)
	if err != nil {
		return nil, err
	}
	return Rank(results, candidates), nil
}

func (m *Matcher) providerInfo() (string, string) {
	info := m.oracle.GetModelInfo()
	provider := "unknown"
	modelVersion := "unknown"
	if p, ok := info["provider"].(string); ok {
		provider = p
	}
	if v, ok := info["model"].(string); ok {
		modelVersion = v
	}
	return provider, modelVersion
}

func (m *Matcher) record(run *models.MatchRun) {
	if m.runs == nil {
		return
	}
	if err := m.runs.SaveRun(run); err != nil {
		m.logger.Warn("Failed to record match run",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
}
