package safelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker answers whether a sender address is on the known-safe list.
// Matching is exact on the full address (case-insensitive); safe-listing
// an address never safe-lists its domain or subaddresses.
type Checker struct {
	addresses map[string]struct{}
	logger    *zap.Logger
}

// NewChecker creates a checker over the configured known-safe senders.
func NewChecker(addresses []string, logger *zap.Logger) *Checker {
	normalized := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr != "" {
			normalized[addr] = struct{}{}
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized known-safe sender list", zap.Int("addresses", len(normalized)))
	}

	return &Checker{
		addresses: normalized,
		logger:    logger,
	}
}

// IsSafe checks a bare address ("user@example.com") against the list.
func (c *Checker) IsSafe(address string) bool {
	if len(c.addresses) == 0 {
		return false
	}

	_, ok := c.addresses[strings.ToLower(strings.TrimSpace(address))]
	if ok && c.logger != nil {
		c.logger.Debug("Sender is on the known-safe list", zap.String("address", address))
	}
	return ok
}
