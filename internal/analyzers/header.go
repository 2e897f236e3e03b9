package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/core"
	"github.com/mikey/phishscan/internal/safelist"
)

// authResultPattern pulls mechanism=verdict pairs out of an
// Authentication-Results style header.
var authResultPattern = regexp.MustCompile(`(?i)\b(spf|dkim|dmarc)\s*=\s*([a-z0-9]+)`)

// domainLikePattern matches domain-shaped tokens inside a display name.
var domainLikePattern = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]{2,})+\b`)

// HeaderAnalyzer evaluates authentication verdicts and spoofing
// indicators from the message headers.
type HeaderAnalyzer struct {
	policy   *core.Policy
	safelist *safelist.Checker
	logger   *zap.Logger
}

// NewHeaderAnalyzer creates a header analyzer bound to a policy and the
// known-safe sender list.
func NewHeaderAnalyzer(policy *core.Policy, safe *safelist.Checker, logger *zap.Logger) *HeaderAnalyzer {
	return &HeaderAnalyzer{
		policy:   policy,
		safelist: safe,
		logger:   logger,
	}
}

// Category implements core.Analyzer.
func (a *HeaderAnalyzer) Category() core.Category {
	return core.CategoryHeader
}

// Analyze implements core.Analyzer.
func (a *HeaderAnalyzer) Analyze(msg *core.ParsedMessage) []core.Finding {
	var findings []core.Finding
	findings = append(findings, a.checkAuthenticationResults(msg)...)
	findings = append(findings, a.checkReturnPathMismatch(msg)...)
	findings = append(findings, a.checkDisplayNameSpoof(msg)...)
	findings = append(findings, a.checkSenderTLD(msg)...)
	return findings
}

// checkAuthenticationResults parses SPF/DKIM/DMARC verdicts from the
// first Authentication-Results header. Mail systems append these headers,
// so the first occurrence is the one added closest to delivery.
func (a *HeaderAnalyzer) checkAuthenticationResults(msg *core.ParsedMessage) []core.Finding {
	raw := msg.Header("Authentication-Results")
	if raw == "" {
		raw = msg.Header("ARC-Authentication-Results")
	}
	if strings.TrimSpace(raw) == "" {
		return []core.Finding{{
			Category:    core.CategoryHeader,
			Code:        core.CodeAuthMissing,
			Description: "No Authentication-Results header present; SPF/DKIM/DMARC verdicts unavailable",
		}}
	}

	matches := authResultPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return []core.Finding{{
			Category:    core.CategoryHeader,
			Code:        core.CodeAuthUnparseable,
			Description: "Authentication-Results header present but no SPF/DKIM/DMARC verdict could be parsed",
		}}
	}

	failCodes := map[string]string{
		"spf":   core.CodeSPFFail,
		"dkim":  core.CodeDKIMFail,
		"dmarc": core.CodeDMARCFail,
	}

	var findings []core.Finding
	seen := map[string]bool{}
	for _, m := range matches {
		mechanism := strings.ToLower(m[1])
		verdict := strings.ToLower(m[2])
		if seen[mechanism] {
			continue
		}
		seen[mechanism] = true
		if verdict == "pass" {
			continue
		}
		findings = append(findings, core.Finding{
			Category:    core.CategoryHeader,
			Code:        failCodes[mechanism],
			Description: fmt.Sprintf("%s verdict is %q, expected \"pass\"", strings.ToUpper(mechanism), verdict),
		})
	}
	return findings
}

// checkReturnPathMismatch compares the From domain against Return-Path
// and Reply-To. An exact known-safe sender match suppresses the finding.
func (a *HeaderAnalyzer) checkReturnPathMismatch(msg *core.ParsedMessage) []core.Finding {
	fromAddr := bareAddress(msg.From)
	fromDomain := addressDomain(msg.From)
	if fromDomain == "" {
		return nil
	}

	if a.safelist.IsSafe(fromAddr) {
		a.logger.Debug("Skipping envelope mismatch check for known-safe sender",
			zap.String("from", fromAddr))
		return nil
	}

	allowSub := a.policy.AllowSubdomainMatch
	if rpDomain := addressDomain(msg.ReturnPath); rpDomain != "" && !domainsEqual(fromDomain, rpDomain, allowSub) {
		return []core.Finding{{
			Category:    core.CategoryHeader,
			Code:        core.CodeFromReturnPathMismatch,
			Description: fmt.Sprintf("From domain %q does not match Return-Path domain %q", fromDomain, rpDomain),
		}}
	}
	if rtDomain := addressDomain(msg.ReplyTo); rtDomain != "" && !domainsEqual(fromDomain, rtDomain, allowSub) {
		return []core.Finding{{
			Category:    core.CategoryHeader,
			Code:        core.CodeFromReturnPathMismatch,
			Description: fmt.Sprintf("From domain %q does not match Reply-To domain %q", fromDomain, rtDomain),
		}}
	}
	return nil
}

// checkDisplayNameSpoof flags a From display name that carries a
// domain-like token (including close lookalikes of the real sending
// domain) or a configured brand keyword the sending domain lacks.
func (a *HeaderAnalyzer) checkDisplayNameSpoof(msg *core.ParsedMessage) []core.Finding {
	name := displayName(msg.From)
	if name == "" {
		return nil
	}
	fromDomain := addressDomain(msg.From)
	lowerName := strings.ToLower(name)

	for _, token := range domainLikePattern.FindAllString(lowerName, -1) {
		token = foldDomain(token)
		if fromDomain != "" && domainsEqual(token, fromDomain, true) {
			continue
		}
		detail := fmt.Sprintf("display name %q contains domain %q but the message was sent from %q", name, token, fromDomain)
		if fromDomain != "" {
			if d := fuzzy.LevenshteinDistance(token, fromDomain); d > 0 && d <= 2 {
				detail = fmt.Sprintf("display name %q contains lookalike %q of sending domain %q", name, token, fromDomain)
			}
		}
		return []core.Finding{{
			Category:    core.CategoryHeader,
			Code:        core.CodeDisplayNameSpoof,
			Description: detail,
		}}
	}

	for _, kw := range a.policy.DeceptiveKeywords() {
		if strings.Contains(lowerName, kw) && !strings.Contains(fromDomain, kw) {
			return []core.Finding{{
				Category:    core.CategoryHeader,
				Code:        core.CodeDisplayNameSpoof,
				Description: fmt.Sprintf("display name %q invokes %q but the message was sent from %q", name, kw, fromDomain),
			}}
		}
	}
	return nil
}

// checkSenderTLD flags a sending domain that sits on a suspicious TLD.
func (a *HeaderAnalyzer) checkSenderTLD(msg *core.ParsedMessage) []core.Finding {
	fromDomain := addressDomain(msg.From)
	tld := tldOf(fromDomain)
	if tld == "" || !a.policy.IsSuspiciousTLD(tld) {
		return nil
	}
	return []core.Finding{{
		Category:    core.CategoryHeader,
		Code:        core.CodeSuspiciousTLD,
		Description: fmt.Sprintf("sending domain %q uses suspicious TLD .%s", fromDomain, tld),
	}}
}
