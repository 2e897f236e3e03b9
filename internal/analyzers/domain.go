package analyzers

import (
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// bareAddress extracts "user@example.com" from a raw address header value,
// tolerating display names, angle brackets and RFC 2047 leftovers.
func bareAddress(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(value); err == nil {
		return strings.ToLower(addr.Address)
	}
	// Malformed per RFC but common in the wild: fall back to whatever
	// sits between the angle brackets, or the raw value.
	if start := strings.LastIndex(value, "<"); start >= 0 {
		if end := strings.Index(value[start:], ">"); end > 0 {
			value = value[start+1 : start+end]
		}
	}
	return strings.ToLower(strings.Trim(value, "<> "))
}

// displayName extracts the display-name portion of an address header, or
// "" when there is none.
func displayName(value string) string {
	if addr, err := mail.ParseAddress(strings.TrimSpace(value)); err == nil {
		return addr.Name
	}
	if idx := strings.Index(value, "<"); idx > 0 {
		return strings.Trim(strings.TrimSpace(value[:idx]), `"`)
	}
	return ""
}

// addressDomain returns the lower-cased, IDNA-folded domain of an address
// header value, or "" when no domain can be extracted.
func addressDomain(value string) string {
	addr := bareAddress(value)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return foldDomain(addr[at+1:])
}

// foldDomain lower-cases a domain and converts IDN labels to their ASCII
// form so lookalike Unicode hosts compare against the policy sets.
func foldDomain(domain string) string {
	domain = strings.ToLower(strings.Trim(domain, "."))
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		return ascii
	}
	return domain
}

// domainsEqual compares two folded domains. Subdomains are not equal to
// their parent unless allowSubdomains is set.
func domainsEqual(a, b string, allowSubdomains bool) bool {
	if a == b {
		return true
	}
	if !allowSubdomains {
		return false
	}
	return strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a)
}

// tldOf returns the final label of a host, or "" for IP-ish hosts.
func tldOf(host string) string {
	host = strings.Trim(host, ".")
	idx := strings.LastIndex(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return ""
	}
	tld := host[idx+1:]
	if tld != "" && tld[0] >= '0' && tld[0] <= '9' {
		return ""
	}
	return tld
}

// baseLabel returns the label left of the TLD ("paypal" for
// "login.paypal.com" is NOT returned; this is the registrable base,
// "paypal" for "paypal.com" and "paypal-login" for "paypal-login.tk").
func baseLabel(host string) string {
	labels := strings.Split(strings.Trim(host, "."), ".")
	if len(labels) < 2 {
		return ""
	}
	return labels[len(labels)-2]
}
