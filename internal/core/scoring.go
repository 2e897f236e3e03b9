package core

import (
	"time"

	"go.uber.org/zap"
)

// ScoringEngine aggregates findings into a report. It is deliberately
// mechanical: weight lookup, summation, clamping and banding. All domain
// judgment lives in the analyzers, which keeps the pipeline auditable.
type ScoringEngine struct {
	policy *Policy
	logger *zap.Logger
}

// NewScoringEngine creates a scoring engine bound to a policy.
func NewScoringEngine(policy *Policy, logger *zap.Logger) *ScoringEngine {
	return &ScoringEngine{
		policy: policy,
		logger: logger,
	}
}

// Score builds the terminal report from the concatenated finding
// sequence. The same findings and policy always produce the same score;
// only the metadata timestamp varies between runs.
func (e *ScoringEngine) Score(findings []Finding, meta Metadata) *AnalysisReport {
	if meta.AnalyzedAt.IsZero() {
		meta.AnalyzedAt = time.Now().UTC()
	}

	weighted := make([]Finding, len(findings))
	total := 0
	for i, f := range findings {
		w := e.policy.Weight(f.Code)
		if w == 0 {
			e.logger.Debug("No weight configured for finding code",
				zap.String("code", f.Code),
				zap.String("category", string(f.Category)))
		}
		f.Weight = w
		weighted[i] = f
		total += w
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return &AnalysisReport{
		TotalScore: total,
		RiskLevel:  e.policy.RiskLevelFor(total),
		Findings:   weighted,
		Metadata:   meta,
	}
}
