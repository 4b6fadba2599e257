package cache

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
)

// Key naming convention: resource-kind:resource-id:variant, colon-separated.
// All callers build keys here so namespaces stay collision-free.

// PortOpticalKey is the cache key for a port's optical power snapshot.
func PortOpticalKey(portID int64) string {
	return fmt.Sprintf("port:%d:optical", portID)
}

// LookupKey builds a key for a monitoring-server lookup from its kind and
// parameters. Parameters are sorted so equivalent lookups share a key.
func LookupKey(kind string, params map[string]string) string {
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)

	key := "zbx:" + kind
	if len(parts) > 0 {
		key += ":" + strings.Join(parts, ":")
	}

	// Very long keys are hashed to keep them Redis-friendly.
	if len(key) > 200 {
		return fmt.Sprintf("zbx:%s:h_%x", kind, md5.Sum([]byte(key)))
	}
	return key
}
