package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/phishscan/internal/core"
)

// The default weight table must survive the viper round trip even when no
// config file is loaded; a lost table would score every message zero.
func TestPolicyParamsDefaultWeights(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	params := cfg.PolicyParams()
	require.NotEmpty(t, params.Weights)
	assert.Equal(t, 20, params.Weights["spf_fail"])
	assert.Equal(t, 25, params.Weights["url_shortener"])
	assert.Equal(t, 50, params.Weights["executable_in_zip"])

	policy := core.NewPolicy(params)
	assert.Equal(t, 25, policy.Weight(core.CodeDMARCFail))
	assert.Equal(t, 40, policy.Weight(core.CodeDangerousExtension))
	assert.Equal(t, 15, policy.Weight(core.CodeSuspiciousTLD))
}

func TestPolicyParamsDefaultLimits(t *testing.T) {
	params := NewFromViper(NewEmptyViper()).PolicyParams()

	assert.Equal(t, 256, params.Archive.MaxEntries)
	assert.Equal(t, int64(64<<20), params.Archive.MaxTotalBytes)
	assert.Equal(t, 3, params.Archive.MaxDepth)
	assert.Equal(t, core.RiskThresholds{MediumAt: 20, HighAt: 50, CriticalAt: 80}, params.Thresholds)

	assert.Contains(t, params.SuspiciousTLDs, "tk")
	assert.Contains(t, params.URLShorteners, "bit.ly")
	assert.Contains(t, params.DeceptiveKeywords, "paypal")
	assert.Contains(t, params.DangerousExtensions, ".exe")
	assert.Empty(t, params.KnownSafeSenders)
}
