package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AnalysisService is the core pipeline: parse, run the analyzers in a
// fixed order, then score. Both the CLI and the HTTP server drive it, so
// the same input always reaches the same verdict regardless of front end.
type AnalysisService struct {
	parser    MessageParser
	analyzers []Analyzer
	engine    *ScoringEngine
	logger    *zap.Logger
}

// NewAnalysisService creates the pipeline. Analyzer order is preserved in
// the report's findings: header, then url, then attachment by convention.
func NewAnalysisService(
	parser MessageParser,
	analyzers []Analyzer,
	engine *ScoringEngine,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		parser:    parser,
		analyzers: analyzers,
		engine:    engine,
		logger:    logger,
	}
}

// Analyze runs the full pipeline over one raw message. The ctx is a
// caller courtesy only; the core never blocks on network or disk.
func (s *AnalysisService) Analyze(ctx context.Context, raw []byte) (*AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	msg, err := s.parser.Parse(raw)
	if err != nil {
		s.logger.Warn("Failed to parse message", zap.Error(err))
		return nil, err
	}

	var findings []Finding
	for _, analyzer := range s.analyzers {
		results := analyzer.Analyze(msg)
		s.logger.Debug("Analyzer finished",
			zap.String("category", string(analyzer.Category())),
			zap.Int("findings", len(results)))
		findings = append(findings, results...)
	}

	report := s.engine.Score(findings, Metadata{
		Subject:    msg.Subject,
		From:       msg.From,
		ReturnPath: strings.Trim(msg.ReturnPath, "<>"),
		AnalyzedAt: time.Now().UTC(),
	})

	s.logger.Info("Analysis complete",
		zap.Int("total_score", report.TotalScore),
		zap.String("risk_level", string(report.RiskLevel)),
		zap.Int("findings", len(report.Findings)),
		zap.Duration("duration", time.Since(start)))

	return report, nil
}
