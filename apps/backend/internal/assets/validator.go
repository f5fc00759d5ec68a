package assets

import (
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"whitelabel/apps/backend/internal/cache"
)

// Validator answers whether a symbol is supported, remembering each verdict
// for the cache TTL.
type Validator struct {
	registry *AssetRegistry
	verdicts *cache.TTLCache[string, bool]
}

func NewValidator(registry *AssetRegistry, ttl time.Duration, clk clock.Clock) *Validator {
	return &Validator{
		registry: registry,
		verdicts: cache.NewTTLCache[string, bool](ttl, clk),
	}
}

func (v *Validator) IsSupported(symbol string) bool {
	key := strings.ToUpper(symbol)
	return v.verdicts.GetOrSet(key, func() bool {
		return v.registry.IsSupported(key)
	})
}

// Invalidate forgets the cached verdict for symbol.
func (v *Validator) Invalidate(symbol string) {
	v.verdicts.Invalidate(strings.ToUpper(symbol))
}

// CachedVerdicts reports how many verdicts are held, live or expired.
func (v *Validator) CachedVerdicts() int {
	return v.verdicts.Len()
}
