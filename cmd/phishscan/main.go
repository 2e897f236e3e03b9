package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/analyzers"
	"github.com/mikey/phishscan/internal/config"
	"github.com/mikey/phishscan/internal/core"
	"github.com/mikey/phishscan/internal/ingest"
	"github.com/mikey/phishscan/internal/logging"
	"github.com/mikey/phishscan/internal/report"
	"github.com/mikey/phishscan/internal/safelist"
)

var (
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	configFile = flag.String("config", "", "Path to config file")
	reportsDir = flag.String("reports-dir", "", "Directory for JSON reports (overrides config)")
	noSave     = flag.Bool("no-save", false, "Print the report without writing it to disk")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Read email from file or stdin
	var raw []byte
	if *inputFile != "" {
		raw, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", zap.Error(err), zap.String("file", *inputFile))
		}
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read stdin", zap.Error(err))
		}
		logger.Info("Reading email from stdin")
	}

	// Wire the pipeline
	policy := core.NewPolicy(cfg.PolicyParams())
	safe := safelist.NewChecker(cfg.GetStringSlice("analysis.known_safe_senders"), logger)
	service := core.NewAnalysisService(
		ingest.NewParser(logger),
		[]core.Analyzer{
			analyzers.NewHeaderAnalyzer(policy, safe, logger),
			analyzers.NewURLAnalyzer(policy, logger),
			analyzers.NewAttachmentAnalyzer(policy, logger),
		},
		core.NewScoringEngine(policy, logger),
		logger,
	)

	startTime := time.Now()
	rep, err := service.Analyze(context.Background(), raw)
	if err != nil {
		logger.Fatal("Failed to analyze email", zap.Error(err))
	}

	// Print results
	fmt.Printf("\n=== Message ===\n")
	fmt.Printf("Subject: %s\n", rep.Metadata.Subject)
	fmt.Printf("From: %s\n", rep.Metadata.From)
	fmt.Printf("Return-Path: %s\n", rep.Metadata.ReturnPath)

	fmt.Printf("\n=== Findings ===\n")
	if len(rep.Findings) == 0 {
		fmt.Printf("No findings.\n")
	}
	for _, f := range rep.Findings {
		fmt.Printf("[%-10s] %-26s +%-3d %s\n", f.Category, f.Code, f.Weight, f.Description)
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Risk score: %d/100\n", rep.TotalScore)
	fmt.Printf("Risk level: %s\n", rep.RiskLevel)
	fmt.Printf("Processing time: %v\n", time.Since(startTime))

	if !*noSave {
		dir := cfg.GetString("reports.output_dir")
		if *reportsDir != "" {
			dir = *reportsDir
		}
		writer := report.NewWriter(dir, logger)
		path, err := writer.Write(rep)
		if err != nil {
			logger.Fatal("Failed to write report", zap.Error(err))
		}
		fmt.Printf("Report: %s\n", path)
	}
}
