package config

import (
	"github.com/spf13/cast"

	"github.com/mikey/phishscan/internal/core"
)

// PolicyParams assembles the raw analysis settings for core.NewPolicy.
// Viper returns the weight table as map[string]any with lower-cased keys;
// cast coerces the values and core.NewPolicy restores the code casing.
func (c *Config) PolicyParams() core.PolicyParams {
	weights := make(map[string]int)
	for code, value := range c.v.GetStringMap("analysis.weights") {
		weights[code] = cast.ToInt(value)
	}

	return core.PolicyParams{
		Weights:             weights,
		SuspiciousTLDs:      c.GetStringSlice("analysis.suspicious_tlds"),
		URLShorteners:       c.GetStringSlice("analysis.url_shorteners"),
		DeceptiveKeywords:   c.GetStringSlice("analysis.deceptive_keywords"),
		DangerousExtensions: c.GetStringSlice("analysis.dangerous_extensions"),
		KnownSafeSenders:    c.GetStringSlice("analysis.known_safe_senders"),
		AllowSubdomainMatch: c.GetBool("analysis.allow_subdomain_match"),
		Archive: core.ArchiveLimits{
			MaxEntries:    c.GetInt("analysis.archive.max_entries"),
			MaxTotalBytes: c.GetInt64("analysis.archive.max_total_bytes"),
			MaxDepth:      c.GetInt("analysis.archive.max_depth"),
		},
		Thresholds: core.RiskThresholds{
			MediumAt:   c.GetInt("analysis.thresholds.medium"),
			HighAt:     c.GetInt("analysis.thresholds.high"),
			CriticalAt: c.GetInt("analysis.thresholds.critical"),
		},
	}
}
