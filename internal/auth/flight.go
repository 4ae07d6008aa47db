package auth

import (
	"golang.org/x/sync/singleflight"
)

// Single-flight keys. Each provider instance has its own group, so keys only
// collapse concurrent work against the same credentials.
const (
	flightInitialize = "initialize"
	flightRefresh    = "refresh"
	flightAuthFlow   = "auth-flow"
)

// doShared runs fn under the given single-flight key. Concurrent callers with
// the same key block on one execution and all receive its result. The key is
// forgotten once the call settles, so later calls run fn again.
func doShared[T any](g *singleflight.Group, key string, fn func() (T, error)) (T, error) {
	v, err, _ := g.Do(key, func() (interface{}, error) {
		return fn()
	})
	result, ok := v.(T)
	if !ok {
		var zero T
		return zero, err
	}
	return result, err
}
