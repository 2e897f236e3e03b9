package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/analyzers"
	"github.com/mikey/phishscan/internal/config"
	"github.com/mikey/phishscan/internal/core"
	"github.com/mikey/phishscan/internal/ingest"
	"github.com/mikey/phishscan/internal/logging"
	"github.com/mikey/phishscan/internal/report"
	"github.com/mikey/phishscan/internal/safelist"
	"github.com/mikey/phishscan/internal/server"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register analysis policy
	if err := container.Provide(func(cfg *config.Config) *core.Policy {
		return core.NewPolicy(cfg.PolicyParams())
	}); err != nil {
		return nil, err
	}

	// Register known-safe sender list
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *safelist.Checker {
		return safelist.NewChecker(cfg.GetStringSlice("analysis.known_safe_senders"), logger)
	}); err != nil {
		return nil, err
	}

	// Register message parser
	if err := container.Provide(func(logger *zap.Logger) core.MessageParser {
		return ingest.NewParser(logger)
	}); err != nil {
		return nil, err
	}

	// Register analyzers in report order: header, url, attachment
	if err := container.Provide(func(policy *core.Policy, safe *safelist.Checker, logger *zap.Logger) []core.Analyzer {
		return []core.Analyzer{
			analyzers.NewHeaderAnalyzer(policy, safe, logger),
			analyzers.NewURLAnalyzer(policy, logger),
			analyzers.NewAttachmentAnalyzer(policy, logger),
		}
	}); err != nil {
		return nil, err
	}

	// Register scoring engine
	if err := container.Provide(core.NewScoringEngine); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register report sink
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ReportSink {
		return report.NewWriter(cfg.GetString("reports.output_dir"), logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		service *core.AnalysisService,
		sink core.ReportSink,
		cfg *config.Config,
		logger *zap.Logger,
	) *server.Server {
		return server.New(service, sink, cfg.GetString("server.listen_address"), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
