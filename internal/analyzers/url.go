package analyzers

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/mikey/phishscan/internal/core"
)

// urlPattern matches URL-shaped substrings in plain text. The character
// class stops before quotes and closing tags so HTML fragments do not
// bleed into the capture.
var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"')]+`)

// URLAnalyzer extracts, normalizes and classifies every URL in the
// message body.
type URLAnalyzer struct {
	policy *core.Policy
	logger *zap.Logger
}

// NewURLAnalyzer creates a URL analyzer bound to a policy.
func NewURLAnalyzer(policy *core.Policy, logger *zap.Logger) *URLAnalyzer {
	return &URLAnalyzer{
		policy: policy,
		logger: logger,
	}
}

// Category implements core.Analyzer.
func (a *URLAnalyzer) Category() core.Category {
	return core.CategoryURL
}

// candidate is one extracted URL occurrence. anchorText is set only for
// HTML anchors, where the visible text may disagree with the target.
type candidate struct {
	raw        string
	anchorText string
}

// Analyze implements core.Analyzer. Anchor targets are collected before
// plain-text matches so the href form wins the first-seen ordering, and
// every rule fires at most once per normalized URL.
func (a *URLAnalyzer) Analyze(msg *core.ParsedMessage) []core.Finding {
	var candidates []candidate
	for _, anc := range extractAnchors(msg.BodyHTML) {
		candidates = append(candidates, anc)
	}
	for _, body := range []string{msg.BodyText, msg.BodyHTML} {
		for _, raw := range urlPattern.FindAllString(body, -1) {
			candidates = append(candidates, candidate{raw: raw})
		}
	}

	var findings []core.Finding
	seen := make(map[string]bool)
	for _, c := range candidates {
		key := normalizeURL(c.raw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		findings = append(findings, a.classify(c)...)
	}

	a.logger.Debug("URL analysis complete",
		zap.Int("distinct_urls", len(seen)),
		zap.Int("findings", len(findings)))
	return findings
}

// classify applies every rule to one distinct URL.
func (a *URLAnalyzer) classify(c candidate) []core.Finding {
	u, err := url.Parse(withScheme(c.raw))
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := foldDomain(u.Hostname())
	display := strings.TrimRight(c.raw, ".,);!")

	var findings []core.Finding
	add := func(code, format string, args ...any) {
		findings = append(findings, core.Finding{
			Category:    core.CategoryURL,
			Code:        code,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if c.anchorText != "" {
		if textHost := hostOf(c.anchorText); textHost != "" && textHost != host {
			add(core.CodeURLTextMismatch,
				"link text shows %q but the target is %q", c.anchorText, display)
		}
	}

	ip := net.ParseIP(strings.Trim(u.Hostname(), "[]"))
	if ip != nil {
		add(core.CodeIPLiteralURL, "URL %q uses a raw IP address as host", display)
	}

	if ip == nil {
		if tld := tldOf(host); tld != "" && a.policy.IsSuspiciousTLD(tld) {
			add(core.CodeSuspiciousTLD, "URL %q uses suspicious TLD .%s", display, tld)
		}
	}

	if a.policy.IsURLShortener(host) || a.policy.IsURLShortener(strings.TrimPrefix(host, "www.")) {
		add(core.CodeURLShortener, "URL %q goes through known shortener %q", display, host)
	}

	lowerURL := strings.ToLower(c.raw)
	for _, kw := range a.policy.DeceptiveKeywords() {
		if strings.Contains(lowerURL, kw) && baseLabel(host) != kw {
			add(core.CodeDeceptiveKeyword,
				"URL %q invokes %q but is not hosted on a %s domain", display, kw, kw)
			break
		}
	}

	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		add(core.CodeNonstandardPort, "URL %q uses non-standard port %s", display, port)
	}

	return findings
}

func isDefaultPort(scheme, port string) bool {
	switch scheme {
	case "http":
		return port == "80"
	case "https":
		return port == "443"
	default:
		return false
	}
}

// withScheme makes bare "www." matches parseable.
func withScheme(raw string) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "http://" + raw
}

// hostOf extracts the folded host of URL-shaped or bare domain-shaped
// display text, or "". Phishing anchors often show "brand.com/login"
// without a scheme.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if urlPattern.MatchString(raw) {
		u, err := url.Parse(withScheme(raw))
		if err != nil || u.Hostname() == "" {
			return ""
		}
		return foldDomain(u.Hostname())
	}

	host := raw
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	// The whole pre-path token must be a domain, not prose containing one.
	if domainLikePattern.FindString(host) != host {
		return ""
	}
	return foldDomain(host)
}

// normalizeURL produces the deduplication key: trailing punctuation and
// slash trimmed, scheme stripped, host lower-cased.
func normalizeURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), ".,);!")
	lower := strings.ToLower(s)
	for _, prefix := range []string{"http://", "https://"} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = strings.ToLower(s[:idx]) + s[idx:]
	} else {
		s = strings.ToLower(s)
	}
	return strings.TrimSuffix(s, "/")
}

// extractAnchors walks the HTML body and returns every <a href> target
// together with its visible text.
func extractAnchors(body string) []candidate {
	if body == "" {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var anchors []candidate
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var href string
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
					break
				}
			}
			if href != "" && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
				anchors = append(anchors, candidate{raw: href, anchorText: strings.TrimSpace(textContent(n))})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return anchors
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
