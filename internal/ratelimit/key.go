package ratelimit

import "strings"

// BuildKey composes the limiter key for an identity under a limit
// config. Empty identities or prefixes produce no key, which disables
// the check.
func BuildKey(identity string, cfg LimitConfig) string {
	identity = strings.TrimSpace(identity)
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if identity == "" || prefix == "" || cfg.MaxRequests <= 0 {
		return ""
	}
	return prefix + ":" + identity
}
