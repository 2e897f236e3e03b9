package core

import (
	"strings"
)

// RiskThresholds are the ordered lower bounds of the medium, high and
// critical bands. Scores below MediumAt are low. The bands cover the
// whole [0,100] range with no gaps.
type RiskThresholds struct {
	MediumAt   int
	HighAt     int
	CriticalAt int
}

// ArchiveLimits bound in-memory archive inspection so a decompression
// bomb cannot exhaust the process.
type ArchiveLimits struct {
	MaxEntries    int
	MaxTotalBytes int64
	MaxDepth      int
}

// Policy is the read-only analysis configuration: the weight table and
// every lookup set the analyzers consult. It is constructed once at
// process start and shared across concurrent analysis runs; nothing may
// mutate it afterwards.
type Policy struct {
	weights             map[string]int
	suspiciousTLDs      map[string]struct{}
	urlShorteners       map[string]struct{}
	deceptiveKeywords   []string
	dangerousExtensions map[string]struct{}
	knownSafeSenders    map[string]struct{}

	AllowSubdomainMatch bool
	Archive             ArchiveLimits
	Thresholds          RiskThresholds
}

// PolicyParams is the raw material for a Policy, usually produced by the
// config package.
type PolicyParams struct {
	Weights             map[string]int
	SuspiciousTLDs      []string
	URLShorteners       []string
	DeceptiveKeywords   []string
	DangerousExtensions []string
	KnownSafeSenders    []string
	AllowSubdomainMatch bool
	Archive             ArchiveLimits
	Thresholds          RiskThresholds
}

// NewPolicy normalizes and freezes the analysis configuration. Finding
// codes are upper-cased (viper lower-cases document keys), hosts and
// addresses lower-cased, extensions stored with a leading dot.
func NewPolicy(p PolicyParams) *Policy {
	pol := &Policy{
		weights:             make(map[string]int, len(p.Weights)),
		suspiciousTLDs:      make(map[string]struct{}, len(p.SuspiciousTLDs)),
		urlShorteners:       make(map[string]struct{}, len(p.URLShorteners)),
		dangerousExtensions: make(map[string]struct{}, len(p.DangerousExtensions)),
		knownSafeSenders:    make(map[string]struct{}, len(p.KnownSafeSenders)),
		AllowSubdomainMatch: p.AllowSubdomainMatch,
		Archive:             p.Archive,
		Thresholds:          p.Thresholds,
	}

	for code, weight := range p.Weights {
		pol.weights[strings.ToUpper(strings.TrimSpace(code))] = weight
	}
	for _, tld := range p.SuspiciousTLDs {
		pol.suspiciousTLDs[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tld), "."))] = struct{}{}
	}
	for _, host := range p.URLShorteners {
		pol.urlShorteners[strings.ToLower(strings.TrimSpace(host))] = struct{}{}
	}
	for _, kw := range p.DeceptiveKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			pol.deceptiveKeywords = append(pol.deceptiveKeywords, kw)
		}
	}
	for _, ext := range p.DangerousExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		pol.dangerousExtensions[ext] = struct{}{}
	}
	for _, addr := range p.KnownSafeSenders {
		pol.knownSafeSenders[strings.ToLower(strings.TrimSpace(addr))] = struct{}{}
	}

	if pol.Archive.MaxEntries <= 0 {
		pol.Archive.MaxEntries = DefaultMaxArchiveEntries
	}
	if pol.Archive.MaxTotalBytes <= 0 {
		pol.Archive.MaxTotalBytes = DefaultMaxArchiveBytes
	}
	if pol.Archive.MaxDepth <= 0 {
		pol.Archive.MaxDepth = DefaultMaxArchiveDepth
	}
	if pol.Thresholds == (RiskThresholds{}) {
		pol.Thresholds = DefaultThresholds
	}

	return pol
}

// Defaults applied when the config document leaves the guards unset.
const (
	DefaultMaxArchiveEntries = 256
	DefaultMaxArchiveBytes   = int64(64 << 20)
	DefaultMaxArchiveDepth   = 3
)

// DefaultThresholds define the standard bands: low <20, medium <50,
// high <80, critical >=80.
var DefaultThresholds = RiskThresholds{MediumAt: 20, HighAt: 50, CriticalAt: 80}

// Weight returns the configured weight for a finding code, or zero when
// the code is unconfigured.
func (p *Policy) Weight(code string) int {
	return p.weights[strings.ToUpper(code)]
}

// IsSuspiciousTLD reports whether the (dot-less, case-insensitive) TLD is
// in the suspicious set.
func (p *Policy) IsSuspiciousTLD(tld string) bool {
	_, ok := p.suspiciousTLDs[strings.ToLower(strings.TrimPrefix(tld, "."))]
	return ok
}

// IsURLShortener reports whether the host is a known shortener.
func (p *Policy) IsURLShortener(host string) bool {
	_, ok := p.urlShorteners[strings.ToLower(host)]
	return ok
}

// DeceptiveKeywords returns the configured brand/lure keyword list,
// already lower-cased. Callers must not modify the returned slice.
func (p *Policy) DeceptiveKeywords() []string {
	return p.deceptiveKeywords
}

// IsDangerousExtension reports whether a filename extension (with or
// without leading dot) is in the dangerous set.
func (p *Policy) IsDangerousExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := p.dangerousExtensions[ext]
	return ok
}

// IsKnownSafeSender reports whether the exact address is configured as a
// known-safe sender. Matching is case-insensitive but otherwise exact;
// safe-listing a domain does not safe-list its subaddresses.
func (p *Policy) IsKnownSafeSender(address string) bool {
	_, ok := p.knownSafeSenders[strings.ToLower(strings.TrimSpace(address))]
	return ok
}

// RiskLevelFor maps a clamped total score onto its band.
func (p *Policy) RiskLevelFor(score int) RiskLevel {
	t := p.Thresholds
	switch {
	case score >= t.CriticalAt:
		return RiskCritical
	case score >= t.HighAt:
		return RiskHigh
	case score >= t.MediumAt:
		return RiskMedium
	default:
		return RiskLow
	}
}
