package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/core"
)

// Writer persists one JSON document per analysis into a reports
// directory. The JSON shape is exactly the AnalysisReport serialization;
// the writer renders, it never alters.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates a report writer rooted at dir.
func NewWriter(dir string, logger *zap.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger,
	}
}

// Write implements core.ReportSink. Filenames carry the analysis
// timestamp plus a short id so concurrent requests never collide.
func (w *Writer) Write(rep *core.AnalysisReport) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	shortID := strings.SplitN(uuid.NewString(), "-", 2)[0]
	name := fmt.Sprintf("report_%s_%s.json", rep.Metadata.AnalyzedAt.Format("20060102_150405"), shortID)
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	w.logger.Info("Report written",
		zap.String("path", path),
		zap.Int("total_score", rep.TotalScore),
		zap.String("risk_level", string(rep.RiskLevel)))
	return path, nil
}
