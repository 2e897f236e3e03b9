package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/analyzers"
	"github.com/mikey/phishscan/internal/config"
	"github.com/mikey/phishscan/internal/core"
	"github.com/mikey/phishscan/internal/ingest"
	"github.com/mikey/phishscan/internal/safelist"
)

type memorySink struct {
	writes int
}

func (m *memorySink) Write(_ *core.AnalysisReport) (string, error) {
	m.writes++
	return "memory", nil
}

func newTestServer(t *testing.T) (*Server, *memorySink) {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.NewFromViper(config.NewEmptyViper())
	policy := core.NewPolicy(cfg.PolicyParams())
	service := core.NewAnalysisService(
		ingest.NewParser(logger),
		[]core.Analyzer{
			analyzers.NewHeaderAnalyzer(policy, safelist.NewChecker(nil, logger), logger),
			analyzers.NewURLAnalyzer(policy, logger),
			analyzers.NewAttachmentAnalyzer(policy, logger),
		},
		core.NewScoringEngine(policy, logger),
		logger,
	)
	sink := &memorySink{}
	return New(service, sink, "127.0.0.1:0", logger), sink
}

func postAnalyze(t *testing.T, srv *Server, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, sink := newTestServer(t)

	source := "From: someone@example.com\r\nSubject: hi\r\n\r\nhello http://bit.ly/abc\r\n"
	payload, err := json.Marshal(map[string]string{"source": source})
	require.NoError(t, err)

	rec := postAnalyze(t, srv, payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.Findings)
	assert.Equal(t, 1, sink.writes)

	var hasShortener bool
	for _, f := range report.Findings {
		if f.Code == core.CodeURLShortener {
			hasShortener = true
		}
	}
	assert.True(t, hasShortener)
}

func TestAnalyzeEndpointRejectsMissingSource(t *testing.T) {
	srv, sink := newTestServer(t)

	rec := postAnalyze(t, srv, []byte(`{"source": ""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postAnalyze(t, srv, []byte(`not json at all`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, sink.writes)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
