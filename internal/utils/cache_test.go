package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache(t *testing.T) {
	cache := GetCache()

	// 单例
	assert.Same(t, cache, GetCache())

	_, ok := cache.GetPayload("cache-test:missing")
	assert.False(t, ok)

	cache.SetPayload("cache-test:hit", map[string]interface{}{"n": 1}, time.Minute)
	payload, ok := cache.GetPayload("cache-test:hit")
	require.True(t, ok)
	assert.Equal(t, 1, payload["n"])

	// 过期条目按未命中处理
	cache.SetPayload("cache-test:stale", map[string]interface{}{"n": 2}, -time.Second)
	_, ok = cache.GetPayload("cache-test:stale")
	assert.False(t, ok)
}
